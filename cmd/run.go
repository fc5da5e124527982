package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digitarr/digitarr/internal/scheduler"
)

var runNow bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check today's digital releases and request matches",
	Long:  "Runs the release pipeline. With schedule.run_time configured this loops daily at that time; otherwise (or with --once) it runs a single check and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		orch, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}

		runOnce := func(ctx context.Context) error {
			// A fetch-stage abort still exits cleanly: the summary records
			// the aborted state and the next scheduled run tries again.
			if _, err := orch.Run(ctx); err != nil {
				zap.L().Warn("run aborted", zap.Error(err))
			}
			return nil
		}

		if cfg.Schedule.RunTime == "" || runNow {
			zap.L().Info("running once")
			return scheduler.RunOnce(ctx, runOnce)
		}

		zap.L().Info("running daily", zap.String("at", cfg.Schedule.RunTime))
		return scheduler.RunDaily(ctx, cfg.Schedule.RunTime, runOnce)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNow, "once", false, "run a single check now even if schedule.run_time is set")
	rootCmd.AddCommand(runCmd)
}
