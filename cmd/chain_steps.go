package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/models"
)

var (
	stepPrompt           string
	stepTemplate         string
	stepGroup            string
	stepProvider         string
	stepIfVar            string
	stepIfEquals         string
	stepIfContains       string
	stepIfMatches        string
	stepFallbackPrompt   string
	stepFallbackTemplate string
	stepFallbackProvider string
)

func init() {
	f := chainAddStepCmd.Flags()
	f.StringVar(&stepPrompt, "prompt", "", "stored prompt id or title to render")
	f.StringVar(&stepTemplate, "template", "", "inline template text instead of a stored prompt")
	f.StringVarP(&stepGroup, "group", "g", "", "parallel group label, consecutive steps sharing it run together")
	f.StringVarP(&stepProvider, "provider", "p", "", "backend for this step")
	f.StringVar(&stepIfVar, "if-var", "", "only run when this context variable is set")
	f.StringVar(&stepIfEquals, "if-equals", "", "with --if-var, require exact value")
	f.StringVar(&stepIfContains, "if-contains", "", "with --if-var, require substring")
	f.StringVar(&stepIfMatches, "if-matches", "", "with --if-var, require regexp match")
	f.StringVar(&stepFallbackPrompt, "fallback-prompt", "", "stored prompt to try when the step fails")
	f.StringVar(&stepFallbackTemplate, "fallback-template", "", "inline template to try when the step fails")
	f.StringVar(&stepFallbackProvider, "fallback-provider", "", "backend for the fallback, default same as the step")
	chainCmd.AddCommand(chainAddStepCmd)
	chainCmd.AddCommand(chainRmStepCmd)
}

var chainAddStepCmd = &cobra.Command{
	Use:   "add-step <chain> <key>",
	Short: "Append a step to a stored chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		step := models.StepSpec{
			Key:      args[1],
			PromptID: stepPrompt,
			Template: stepTemplate,
			Group:    stepGroup,
			Provider: stepProvider,
		}
		if stepIfVar != "" {
			step.If = &models.Condition{
				Variable: stepIfVar,
				Equals:   stepIfEquals,
				Contains: stepIfContains,
				Matches:  stepIfMatches,
			}
		}
		if stepFallbackPrompt != "" || stepFallbackTemplate != "" {
			step.OnError = &models.FallbackSpec{
				PromptID: stepFallbackPrompt,
				Template: stepFallbackTemplate,
				Provider: stepFallbackProvider,
			}
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		c, err := svc.Vault().FindChain(args[0])
		if err != nil {
			return err
		}
		c, err = svc.Vault().AddChainStep(c.ID, step)
		if err != nil {
			return err
		}
		cmd.Printf("%s %s now has %d step(s)\n", color.GreenString("✓"), c.Title, len(c.Steps))
		return nil
	},
}

var chainRmStepCmd = &cobra.Command{
	Use:   "rm-step <chain> <key>",
	Short: "Remove a step from a stored chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		c, err := svc.Vault().FindChain(args[0])
		if err != nil {
			return err
		}
		c, err = svc.Vault().RemoveChainStep(c.ID, args[1])
		if err != nil {
			return err
		}
		cmd.Printf("%s %s now has %d step(s)\n", color.GreenString("✓"), c.Title, len(c.Steps))
		return nil
	},
}
