// Package scheduler runs the pipeline once or daily at a fixed wall-clock
// time. Waits are plain timers that select on context cancellation, so a
// shutdown signal interrupts the loop between runs without touching a run
// in progress.
package scheduler

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) error

// RunOnce executes fn a single time.
func RunOnce(ctx context.Context, fn RunFunc) error {
	return fn(ctx)
}

// RunDaily executes fn every day at runTime ("HH:MM", local clock). Errors
// from individual runs are logged and the loop continues; only context
// cancellation ends it.
func RunDaily(ctx context.Context, runTime string, fn RunFunc) error {
	at, err := time.Parse("15:04", runTime)
	if err != nil {
		return eris.Wrapf(err, "scheduler: parse run time %q", runTime)
	}

	for {
		next := nextRun(time.Now(), at.Hour(), at.Minute())
		wait := time.Until(next)
		zap.L().Info("scheduled next run",
			zap.Time("at", next),
			zap.Duration("in", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			zap.L().Info("scheduler stopped")
			return nil
		case <-timer.C:
		}

		if err := fn(ctx); err != nil {
			zap.L().Error("scheduled run failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// nextRun returns the next occurrence of hour:minute strictly after now.
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
