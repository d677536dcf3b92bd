package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/service"
)

var initUsePassword bool

func init() {
	initCmd.Flags().BoolVarP(&initUsePassword, "password", "p", false, "protect the vault with a master password instead of a key file")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new empty vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := service.InitVault(cfg, Logger, initUsePassword)
		if err != nil {
			return err
		}
		cmd.Printf("%s vault created at %s\n", color.GreenString("✓"), svc.Vault().Path())
		if !initUsePassword {
			keyPath, _ := cfg.KeyFilePath()
			cmd.Printf("%s key file at %s, keep it safe\n", color.CyanString("→"), keyPath)
		}
		return nil
	},
}
