package cmd

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/clipboard"
)

var (
	runVars     []string
	runProvider string
	runCopy     bool
	renderVars  []string
	renderCopy  bool
)

func init() {
	runCmd.Flags().StringSliceVar(&runVars, "var", nil, "variable binding key=value (repeatable)")
	runCmd.Flags().StringVarP(&runProvider, "provider", "p", "", "send the rendered prompt to this configured backend")
	runCmd.Flags().BoolVar(&runCopy, "copy", false, "copy the output to the clipboard")
	renderCmd.Flags().StringSliceVar(&renderVars, "var", nil, "variable binding key=value (repeatable)")
	renderCmd.Flags().BoolVar(&renderCopy, "copy", false, "copy the rendered text to the clipboard")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(copyCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <id|title>",
	Short: "Render a prompt and optionally send it to a backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVars(runVars)
		if err != nil {
			return err
		}
		svc, err := openService()
		if err != nil {
			return err
		}

		var out string
		if runProvider != "" {
			spin, cleanup := startSpinner("Waiting for " + runProvider + "...")
			out, err = svc.RunPrompt(cmd.Context(), args[0], vars, runProvider)
			spin.FinalMSG = ""
			cleanup()
		} else {
			out, err = svc.RunPrompt(cmd.Context(), args[0], vars, "")
		}
		if err != nil {
			return err
		}

		cmd.Print(out)
		if !strings.HasSuffix(out, "\n") {
			cmd.Println()
		}
		if runCopy {
			if err := clipboard.Copy(out); err != nil {
				Logger.Warnf("clipboard copy failed: %v", err)
			}
		}
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <id|title>",
	Short: "Fill a prompt's placeholders and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVars(renderVars)
		if err != nil {
			return err
		}
		svc, err := openService()
		if err != nil {
			return err
		}
		out, err := svc.RenderPrompt(args[0], vars)
		if err != nil {
			return err
		}
		cmd.Print(out)
		if !strings.HasSuffix(out, "\n") {
			cmd.Println()
		}
		if renderCopy {
			if err := clipboard.Copy(out); err != nil {
				Logger.Warnf("clipboard copy failed: %v", err)
			}
		}
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <id|title>",
	Short: "Copy a prompt's raw content to the clipboard",
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
		if err := clipboard.Copy(p.Content); err != nil {
			return err
		}
		cmd.Printf("%s copied %s\n", color.GreenString("✓"), p.Title)
		return nil
	},
}
