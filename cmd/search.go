package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/yuutai-cli/internal/report"
)

var (
	searchKeywords string
	searchDate     string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List a day's benefit disclosures whose title matches any keyword",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		keywords := splitKeywords(searchKeywords)
		if len(keywords) == 0 {
			return eris.New("--keywords must name at least one keyword")
		}

		env, err := initPipeline(ctx, envOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		ds, err := env.Pipeline.SearchKeywords(ctx, searchDate, keywords)
		if err != nil {
			return err
		}
		if len(ds) == 0 {
			fmt.Fprintln(os.Stderr, "No matching disclosures.")
			return nil
		}
		return report.WriteDisclosures(os.Stdout, ds)
	},
}

// splitKeywords splits a comma-separated list, dropping blanks.
func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func init() {
	searchCmd.Flags().StringVar(&searchKeywords, "keywords", "", "comma-separated keywords")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "date to search (YYYY-MM-DD, default today)")
	_ = searchCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(searchCmd)
}
