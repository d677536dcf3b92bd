package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/chain"
	"github.com/dpshade/prompt-vault/internal/models"
)

var (
	chainRunVars   []string
	chainRunFile   string
	chainRunStrict bool
	chainRunLimit  int
	chainRunOnly   string
)

func init() {
	f := chainRunCmd.Flags()
	f.StringSliceVar(&chainRunVars, "var", nil, "variable binding key=value (repeatable)")
	f.StringVarP(&chainRunFile, "file", "f", "", "run a chain YAML file instead of a stored chain")
	f.BoolVar(&chainRunStrict, "strict", false, "abort after the first failed phase instead of continuing")
	f.IntVar(&chainRunLimit, "concurrency", 0, "max parallel steps per group, 0 for the default")
	f.StringVar(&chainRunOnly, "output", "", "print only this step's output")
	chainCmd.AddCommand(chainRunCmd)
}

var chainRunCmd = &cobra.Command{
	Use:   "run [id|title]",
	Short: "Execute a chain and print its outputs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chainRunFile == "" && len(args) == 0 {
			return fmt.Errorf("pass a stored chain or --file")
		}
		overrides, err := parseVars(chainRunVars)
		if err != nil {
			return err
		}
		svc, err := openService()
		if err != nil {
			return err
		}

		var def *models.ChainDefinition
		if chainRunFile != "" {
			data, err := os.ReadFile(chainRunFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", chainRunFile, err)
			}
			def, err = chain.ParseDefinition(data)
			if err != nil {
				return err
			}
		} else {
			def, err = svc.Vault().FindChain(args[0])
			if err != nil {
				return err
			}
		}

		opts := chain.Options{Concurrency: chainRunLimit}
		if chainRunStrict {
			opts.Mode = chain.ModeStrict
		}

		spin, cleanup := startSpinner(fmt.Sprintf("Running %d step(s)...", len(def.Steps)))
		res, runErr := svc.RunChain(cmd.Context(), def, overrides, opts)
		spin.FinalMSG = ""
		cleanup()

		if res != nil {
			printResult(cmd, def, res)
		}
		return runErr
	},
}

// printResult writes step outputs in definition order, then failures and
// skips. Initial variables are not echoed back.
func printResult(cmd *cobra.Command, def *models.ChainDefinition, res *chain.Result) {
	if chainRunOnly != "" {
		if out, ok := res.Context[chainRunOnly]; ok {
			cmd.Print(out)
			if !strings.HasSuffix(out, "\n") {
				cmd.Println()
			}
		}
		return
	}

	// Keys in the context but not in the definition are initial variables;
	// they are not echoed back.
	for _, step := range def.Steps {
		out, ok := res.Context[step.Key]
		if !ok {
			continue
		}
		cmd.Printf("%s\n%s\n", color.CyanString("── %s", step.Key), out)
	}

	for _, key := range res.Skipped {
		cmd.Printf("%s %s skipped\n", color.YellowString("·"), key)
	}
	for _, f := range res.Failures {
		cmd.Printf("%s %v\n", color.RedString("✗"), f)
	}
}
