package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	newTags []string
	newFile string
)

func init() {
	newCmd.Flags().StringSliceVarP(&newTags, "tag", "t", nil, "tag to attach (repeatable)")
	newCmd.Flags().StringVarP(&newFile, "file", "f", "", "read content from file instead of stdin")
	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a prompt from a file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(newFile)
		if err != nil {
			return err
		}
		svc, err := openService()
		if err != nil {
			return err
		}
		p, err := svc.Vault().CreatePrompt(args[0], content, newTags)
		if err != nil {
			return err
		}
		cmd.Printf("%s created %s (%s)\n", color.GreenString("✓"), p.Title, p.ID)
		return nil
	},
}
