package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	editFile string
	tagSet   []string
)

func init() {
	editCmd.Flags().StringVarP(&editFile, "file", "f", "", "read new content from file instead of stdin")
	tagCmd.Flags().StringSliceVarP(&tagSet, "set", "s", nil, "replacement tag set (repeatable, empty clears)")
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(deleteCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit <id|title>",
	Short: "Replace a prompt's content, recording a new version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(editFile)
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
		p, err = svc.Vault().EditPrompt(p.ID, content)
		if err != nil {
			return err
		}
		cmd.Printf("%s %s is now version %d\n", color.GreenString("✓"), p.Title, p.CurrentVersion)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <id|title> <new title>",
	Short: "Rename a prompt",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		p, err := svc.Vault().FindPrompt(args[0])
		if err != nil {
			return err
		}
		p, err = svc.Vault().RenamePrompt(p.ID, args[1])
		if err != nil {
			return err
		}
		cmd.Printf("%s renamed to %s\n", color.GreenString("✓"), p.Title)
		return nil
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag <id|title>",
	Short: "Replace a prompt's tags",
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
		p, err = svc.Vault().SetPromptTags(p.ID, tagSet)
		if err != nil {
			return err
		}
		cmd.Printf("%s %s now has %d tag(s)\n", color.GreenString("✓"), p.Title, len(p.Tags))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id|title>",
	Short: "Delete a prompt and its history",
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
		if err := svc.Vault().DeletePrompt(p.ID); err != nil {
			return err
		}
		cmd.Printf("%s deleted %s\n", color.GreenString("✓"), p.Title)
		return nil
	},
}
