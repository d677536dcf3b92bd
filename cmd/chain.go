package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/chain"
	"github.com/dpshade/prompt-vault/internal/models"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Manage and run multi-step prompt chains",
}

var (
	chainNewVars []string
	chainNewFile string
)

func init() {
	chainNewCmd.Flags().StringSliceVar(&chainNewVars, "var", nil, "initial variable key=value (repeatable)")
	chainNewCmd.Flags().StringVarP(&chainNewFile, "file", "f", "", "create from a chain YAML file")
	chainCmd.AddCommand(chainNewCmd)
	chainCmd.AddCommand(chainListCmd)
	chainCmd.AddCommand(chainShowCmd)
	chainCmd.AddCommand(chainDeleteCmd)
	chainCmd.AddCommand(chainExportCmd)
	rootCmd.AddCommand(chainCmd)
}

var chainNewCmd = &cobra.Command{
	Use:     "new <title>",
	Aliases: []string{"import"},
	Short:   "Create a stored chain, empty or from a YAML file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVars(chainNewVars)
		if err != nil {
			return err
		}
		var steps []models.StepSpec
		if chainNewFile != "" {
			data, err := os.ReadFile(chainNewFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", chainNewFile, err)
			}
			def, err := chain.ParseDefinition(data)
			if err != nil {
				return err
			}
			steps = def.Steps
			for k, v := range def.Vars {
				if _, ok := vars[k]; !ok {
					vars[k] = v
				}
			}
		}
		svc, err := openService()
		if err != nil {
			return err
		}
		c, err := svc.Vault().CreateChain(args[0], vars, steps)
		if err != nil {
			return err
		}
		cmd.Printf("%s created chain %s (%s) with %d step(s)\n",
			color.GreenString("✓"), c.Title, c.ID, len(c.Steps))
		return nil
	},
}

var chainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		for _, c := range svc.Vault().ListChains() {
			cmd.Printf("%s  %s  %d step(s)\n", color.YellowString(c.ID), c.Title, len(c.Steps))
		}
		return nil
	},
}

var chainShowCmd = &cobra.Command{
	Use:   "show <id|title>",
	Short: "Print a chain definition as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		c, err := svc.Vault().FindChain(args[0])
		if err != nil {
			return err
		}
		data, err := chain.EncodeDefinition(c)
		if err != nil {
			return err
		}
		cmd.Print(string(data))
		return nil
	},
}

var chainDeleteCmd = &cobra.Command{
	Use:   "delete <id|title>",
	Short: "Delete a stored chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		c, err := svc.Vault().FindChain(args[0])
		if err != nil {
			return err
		}
		if err := svc.Vault().DeleteChain(c.ID); err != nil {
			return err
		}
		cmd.Printf("%s deleted %s\n", color.GreenString("✓"), c.Title)
		return nil
	},
}

var chainExportCmd = &cobra.Command{
	Use:   "export <id|title> <file>",
	Short: "Write a chain definition to a YAML file",
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
		data, err := chain.EncodeDefinition(c)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[1], err)
		}
		cmd.Printf("%s wrote %s\n", color.GreenString("✓"), args[1])
		return nil
	},
}
