package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/yuutai-cli/internal/monitoring"
	"github.com/sells-group/yuutai-cli/internal/pipeline"
	"github.com/sells-group/yuutai-cli/internal/scheduler"
)

var scheduleTime string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Sync today's disclosures once a day at a fixed local time",
	Long:  "Runs in the foreground and syncs the current day's disclosures every day at --time (HH:MM). Stops on SIGINT or SIGTERM.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		at := scheduleTime
		if at == "" {
			at = cfg.Schedule.Time
		}
		if _, _, err := scheduler.ParseClock(at); err != nil {
			return err
		}

		env, err := initPipeline(ctx, envOptions{Write: true})
		if err != nil {
			return err
		}
		defer env.Close()

		var checker *monitoring.Checker
		if env.Store != nil {
			checker = monitoring.NewChecker(
				monitoring.NewCollector(env.Store),
				monitoring.NewAlerter(cfg.Monitoring),
				cfg.Monitoring,
			)
		}

		s, err := scheduler.New(at, dailyJob(env.Pipeline, checker), scheduler.WithPoll(cfg.Schedule.Poll()))
		if err != nil {
			return err
		}
		return s.Run(ctx)
	},
}

// dailyJob processes the current day and then checks ledger health. A failed
// day is reported to the scheduler, which logs it and waits for tomorrow.
func dailyJob(p *pipeline.Pipeline, checker *monitoring.Checker) scheduler.Job {
	return func(ctx context.Context) error {
		res := p.ProcessScheduled(ctx)
		if checker != nil {
			checker.Check(ctx)
		}
		if !res.Success {
			return eris.Errorf("scheduled sync %s: %s", res.Date, res.Error)
		}
		return nil
	}
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleTime, "time", "", "daily run time HH:MM (default schedule.time, 09:00)")
	rootCmd.AddCommand(scheduleCmd)
}
