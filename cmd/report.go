package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/yuutai-cli/internal/report"
)

var (
	reportDate   string
	reportFormat string
	reportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a day's benefit disclosures by category",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(reportFormat)
		if err != nil {
			return err
		}
		if format == report.FormatXLSX && reportOut == "" {
			return eris.New("--format xlsx requires --out")
		}

		env, err := initPipeline(ctx, envOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := env.Pipeline.Report(ctx, reportDate)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if reportOut != "" {
			f, err := os.Create(reportOut)
			if err != nil {
				return eris.Wrap(err, "create report file")
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		return report.Write(w, r, format)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "date to report on (YYYY-MM-DD, default today)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "output format (text, markdown, html, json, yaml, xlsx)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the report to this file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}
