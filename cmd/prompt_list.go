package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/errs"
)

var (
	listTags   []string
	getVersion int
)

func init() {
	listCmd.Flags().StringSliceVarP(&listTags, "tag", "t", nil, "only show prompts carrying every given tag")
	getCmd.Flags().IntVarP(&getVersion, "version", "n", 0, "print a specific historical version")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		for _, p := range svc.Vault().ListPrompts() {
			if len(listTags) > 0 && !p.HasAllTags(listTags) {
				continue
			}
			line := color.YellowString(p.ID) + "  " + p.Title
			if len(p.Tags) > 0 {
				line += "  " + color.CyanString("["+strings.Join(p.Tags, ", ")+"]")
			}
			cmd.Println(line)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id|title>",
	Short: "Print a prompt's content",
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
		content := p.Content
		if getVersion > 0 {
			rec := p.Version(getVersion)
			if rec == nil {
				return fmt.Errorf("%s has no version %d, latest is %d: %w", p.ID, getVersion, p.CurrentVersion, errs.ErrInvalidVersion)
			}
			content = rec.Content
		}
		cmd.Print(content)
		if !strings.HasSuffix(content, "\n") {
			cmd.Println()
		}
		return nil
	},
}
