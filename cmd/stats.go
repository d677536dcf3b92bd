package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize vault contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		st := svc.Stats()
		cmd.Printf("prompts:  %d\n", st.Prompts)
		cmd.Printf("chains:   %d\n", st.Chains)
		cmd.Printf("versions: %d\n", st.Versions)
		if len(st.TopTags) > 0 {
			cmd.Println("tags:")
			limit := len(st.TopTags)
			if limit > 10 {
				limit = 10
			}
			for _, tc := range st.TopTags[:limit] {
				cmd.Printf("  %s %s\n", color.CyanString("%3d", tc.Count), tc.Tag)
			}
		}
		return nil
	},
}
