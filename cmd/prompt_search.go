package cmd

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-vault/internal/vault"
)

var (
	searchContent       bool
	searchRegex         bool
	searchCaseSensitive bool
	searchTags          []string
)

func init() {
	searchCmd.Flags().BoolVarP(&searchContent, "content", "c", false, "match against content instead of only titles")
	searchCmd.Flags().BoolVarP(&searchRegex, "regex", "r", false, "treat the query as a regular expression")
	searchCmd.Flags().BoolVar(&searchCaseSensitive, "case-sensitive", false, "match case exactly")
	searchCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "require every given tag")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search prompts",
	Long: `Search prompts. With no flags the query fuzzy-matches titles, tags,
and content. The --content, --regex, --case-sensitive, and --tag flags
switch to exact field matching.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		svc, err := openService()
		if err != nil {
			return err
		}

		structured := searchContent || searchRegex || searchCaseSensitive || len(searchTags) > 0
		if !structured {
			for _, p := range svc.SearchPrompts(query) {
				cmd.Printf("%s  %s\n", color.YellowString(p.ID), p.Title)
			}
			return nil
		}

		hits, err := svc.Vault().Search(vault.Query{
			Text:          query,
			InTitle:       !searchContent,
			InContent:     searchContent,
			Tags:          searchTags,
			Regex:         searchRegex,
			CaseSensitive: searchCaseSensitive,
		})
		if err != nil {
			return err
		}
		for _, hit := range hits {
			line := color.YellowString(hit.Prompt.ID) + "  " + hit.Prompt.Title
			if hit.Field != "" {
				line += "  " + color.CyanString("("+hit.Field+")")
			}
			if len(hit.Prompt.Tags) > 0 {
				line += "  [" + strings.Join(hit.Prompt.Tags, ", ") + "]"
			}
			cmd.Println(line)
		}
		return nil
	},
}
