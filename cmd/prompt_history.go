package cmd

import (
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(revertCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <id|title>",
	Short: "Show a prompt's version history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		p, err := svc.Vault().FindPrompt(args[0])
		if err != nil {
			return err
		}
		for _, rec := range p.Versions {
			marker := " "
			if rec.Version == p.CurrentVersion {
				marker = color.GreenString("*")
			}
			cmd.Printf("%s v%-3d %s  %d bytes\n", marker, rec.Version,
				rec.Timestamp.Local().Format("2006-01-02 15:04"), len(rec.Content))
		}
		return nil
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert <id|title> <version>",
	Short: "Restore a historical version as the newest one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		svc, err := openService()
		if err != nil {
			return err
		}
		p, err := svc.Vault().FindPrompt(args[0])
		if err != nil {
			return err
		}
		p, err = svc.Vault().RevertPrompt(p.ID, version)
		if err != nil {
			return err
		}
		cmd.Printf("%s %s reverted to v%d content, now at version %d\n",
			color.GreenString("✓"), p.Title, version, p.CurrentVersion)
		return nil
	},
}
