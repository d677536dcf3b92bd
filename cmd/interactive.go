package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/ui"
)

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"browse", "i"},
	Short:   "Browse the vault in a full-screen terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		return ui.Run(svc)
	},
}
