package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/yuutai-cli/internal/report"
	"github.com/sells-group/yuutai-cli/internal/tdnet"
)

var (
	companyCode     string
	companyDaysBack int
	companyDryRun   bool
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Write one company's recent benefit disclosures to Notion",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		code := tdnet.NormalizeCode(companyCode)
		if !tdnet.ValidCode(code) {
			return eris.Errorf("invalid company code %q (want 4 digits)", companyCode)
		}
		if companyDaysBack <= 0 {
			return eris.New("--days-back must be positive")
		}

		env, err := initPipeline(ctx, envOptions{Write: true, DryRun: companyDryRun})
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.Pipeline.ProcessCompany(ctx, code, companyDaysBack)
		if err != nil {
			return err
		}
		return report.WriteStats(os.Stdout, code, stats)
	},
}

func init() {
	companyCmd.Flags().StringVar(&companyCode, "code", "", "securities code (4 digits, or the 5-character feed form)")
	companyCmd.Flags().IntVar(&companyDaysBack, "days-back", 30, "number of past days to scan")
	companyCmd.Flags().BoolVar(&companyDryRun, "dry-run", false, "fetch and log without downloading or writing")
	_ = companyCmd.MarkFlagRequired("code")
	rootCmd.AddCommand(companyCmd)
}
