// Package cmd wires the pv command tree.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/config"
	"github.com/dpshade/prompt-vault/internal/logging"
)

var (
	verbose bool
	debug   bool

	// Logger is shared by every subcommand. It is rebuilt in the
	// persistent pre-run once flags are parsed.
	Logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pv",
	Short: "Encrypted prompt vault with versioning and chain execution",
	Long: `pv stores prompt templates in a single encrypted container, keeps a
full version history per prompt, and runs multi-step chains against
configured generation backends.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Logger = logging.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("initialized with verbose=%t, debug=%t", verbose, debug)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
}

// loadConfig reads config.toml from the vault home directory.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// Execute runs the command tree and reports failures on stderr.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		Logger.Errorf("%v", err)
		os.Exit(1)
	}
}
