package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/yuutai-cli/internal/model"
	"github.com/sells-group/yuutai-cli/internal/report"
)

var (
	syncDate      string
	syncStartDate string
	syncEndDate   string
	syncDryRun    bool
	syncTest      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write one day's or a date range's benefit disclosures to Notion",
	Long: "Fetches shareholder benefit disclosures for --date (default today) or " +
		"--start-date..--end-date, downloads their documents and writes them to Notion. " +
		"--test processes yesterday.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if syncDate != "" && syncStartDate != "" {
			return eris.New("--date and --start-date are mutually exclusive")
		}
		if syncEndDate != "" && syncStartDate == "" {
			return eris.New("--end-date requires --start-date")
		}

		env, err := initPipeline(ctx, envOptions{Write: true, DryRun: syncDryRun})
		if err != nil {
			return err
		}
		defer env.Close()

		if syncStartDate != "" {
			results, err := env.Pipeline.ProcessRange(ctx, syncStartDate, syncEndDate)
			if werr := report.WriteRange(os.Stdout, model.Summarize(results)); werr != nil {
				return werr
			}
			return err
		}

		date := syncDate
		if syncTest {
			date = yesterday(time.Now())
		}
		res := env.Pipeline.ProcessDate(ctx, date)
		if err := report.WriteStats(os.Stdout, res.Date, res.Stats); err != nil {
			return err
		}
		if !res.Success {
			return eris.Errorf("sync %s: %s", res.Date, res.Error)
		}
		return nil
	},
}

// yesterday returns the calendar day before now as YYYY-MM-DD.
func yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(time.DateOnly)
}

func init() {
	syncCmd.Flags().StringVar(&syncDate, "date", "", "date to process (YYYY-MM-DD, default today)")
	syncCmd.Flags().StringVar(&syncStartDate, "start-date", "", "first date of a range (YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&syncEndDate, "end-date", "", "last date of a range (YYYY-MM-DD, default start date)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "fetch and log without downloading or writing")
	syncCmd.Flags().BoolVar(&syncTest, "test", false, "process yesterday's disclosures")
	syncCmd.MarkFlagsMutuallyExclusive("date", "test")
	rootCmd.AddCommand(syncCmd)
}
