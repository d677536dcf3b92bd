package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/service"
)

var (
	exportOut string
	exportIDs []string
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "prompts.pvb", "bundle file to write")
	exportCmd.Flags().StringSliceVar(&exportIDs, "id", nil, "prompt id to include (repeatable, default all)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Seal prompts into a passphrase-protected transfer bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		passphrase, err := service.ReadPassphrase("Bundle passphrase")
		if err != nil {
			return err
		}
		data, err := svc.ExportPrompts(exportIDs, passphrase)
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOut, data, 0600); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}
		cmd.Printf("%s wrote %s\n", color.GreenString("✓"), exportOut)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <bundle>",
	Short: "Add prompts from a transfer bundle, skipping ids already present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read bundle: %w", err)
		}
		svc, err := openService()
		if err != nil {
			return err
		}
		passphrase, err := service.ReadPassphrase("Bundle passphrase")
		if err != nil {
			return err
		}
		added, err := svc.ImportPrompts(data, passphrase)
		if err != nil {
			return err
		}
		cmd.Printf("%s imported %d prompt(s)\n", color.GreenString("✓"), added)
		return nil
	},
}
