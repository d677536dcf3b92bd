package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/service"
	"github.com/dpshade/prompt-vault/internal/vault"
)

var rotateToKeyFile bool

func init() {
	rotateKeyCmd.Flags().BoolVarP(&rotateToKeyFile, "keyfile", "k", false, "rotate to a freshly generated key file instead of a password")
	rootCmd.AddCommand(rotateKeyCmd)
}

var rotateKeyCmd = &cobra.Command{
	Use:   "rotate-key",
	Short: "Re-encrypt the vault under a new master password or key file",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		// The new key material lands in a sidecar first; the primary key
		// file is replaced only after the container has been re-encrypted,
		// so a crash at any point leaves a key that opens the vault.
		var creds vault.Credentials
		var keyPath string
		if rotateToKeyFile {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			keyPath, err = cfg.KeyFilePath()
			if err != nil {
				return err
			}
			key, err := vault.StageKeyFile(keyPath)
			if err != nil {
				return err
			}
			creds = vault.Credentials{Key: key}
		} else {
			pw, err := service.ReadNewPassword()
			if err != nil {
				return err
			}
			creds = vault.Credentials{Password: pw}
		}

		if err := svc.Vault().Rotate(creds); err != nil {
			if keyPath != "" {
				_ = vault.DiscardStagedKeyFile(keyPath)
			}
			return err
		}
		if keyPath != "" {
			if err := vault.CommitKeyFile(keyPath); err != nil {
				return err
			}
		}
		cmd.Printf("%s vault re-encrypted\n", color.GreenString("✓"))
		return nil
	},
}
