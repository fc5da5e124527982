// Package pipeline sequences one release-check run: fetch today's
// candidates, enrich them, filter, dispatch requests, notify. Only a fetch
// failure aborts a run; every later stage isolates failures per item.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digitarr/digitarr/internal/config"
	"github.com/digitarr/digitarr/internal/dispatch"
	"github.com/digitarr/digitarr/internal/enrich"
	"github.com/digitarr/digitarr/internal/filter"
	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/internal/notify"
	"github.com/digitarr/digitarr/internal/source"
)

// Orchestrator wires the pipeline stages together for a run. Each run is a
// fresh pass: no state survives between invocations.
type Orchestrator struct {
	source     source.Source
	enricher   *enrich.Enricher
	filters    config.FilterConfig
	dispatcher *dispatch.Dispatcher
	notifier   *notify.Notifier

	// requestDelay postpones dispatch after detection. Interruptible: a
	// canceled context ends the wait without dispatching anything.
	requestDelay time.Duration

	now func() time.Time
}

// New creates an Orchestrator.
func New(
	src source.Source,
	enricher *enrich.Enricher,
	filters config.FilterConfig,
	dispatcher *dispatch.Dispatcher,
	notifier *notify.Notifier,
	requestDelay time.Duration,
) *Orchestrator {
	return &Orchestrator{
		source:       src,
		enricher:     enricher,
		filters:      filters,
		dispatcher:   dispatcher,
		notifier:     notifier,
		requestDelay: requestDelay,
		now:          time.Now,
	}
}

// Run executes one full pipeline pass and always returns a summary. The
// returned error is non-nil only when the run aborted at the fetch stage;
// callers treat it as diagnostic, not as a process failure.
func (o *Orchestrator) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{
		RunID:     uuid.NewString(),
		Date:      o.now().Format("2006-01-02"),
		State:     model.RunStateIdle,
		Source:    o.source.Name(),
		StartedAt: o.now(),
	}
	log := zap.L().With(zap.String("run_id", summary.RunID))
	log.Info("starting release check",
		zap.String("source", summary.Source),
		zap.Int("targets", o.dispatcher.Targets()),
	)

	// Fetching. Source failure is the sole fatal condition.
	summary.State = model.RunStateFetching
	candidates, err := o.source.FetchToday(ctx)
	if err != nil {
		summary.State = model.RunStateAborted
		summary.FinishedAt = o.now()
		o.logAbort(log, err)
		return summary, err
	}
	summary.Found = len(candidates)
	log.Info("found digital releases", zap.Int("count", len(candidates)))

	// Enriching. Per-item isolation from here on.
	summary.State = model.RunStateEnriching
	var records []*model.MovieRecord
	for _, res := range o.enricher.EnrichAll(ctx, candidates) {
		if res.Err != nil {
			summary.Dropped++
			continue
		}
		records = append(records, res.Record)
	}
	summary.Enriched = len(records)

	// Filtering.
	summary.State = model.RunStateFiltering
	kept, rejected := filter.Apply(records, o.filters)
	summary.FilteredIn = len(kept)
	summary.FilteredOut = rejected
	log.Info("applied filters",
		zap.Int("qualified", len(kept)),
		zap.Int("rejected", rejected),
	)

	// Optional pre-dispatch delay, interruptible by shutdown.
	if len(kept) > 0 && o.requestDelay > 0 {
		log.Info("delaying dispatch", zap.Duration("delay", o.requestDelay))
		if !o.wait(ctx, o.requestDelay) {
			summary.State = model.RunStateDone
			summary.FinishedAt = o.now()
			log.Warn("run canceled during dispatch delay")
			return summary, nil
		}
	}

	// Dispatching.
	summary.State = model.RunStateDispatching
	type delivered struct {
		rec      *model.MovieRecord
		services []string
	}
	var toNotify []delivered
	for _, rec := range kept {
		outcomes := o.dispatcher.Dispatch(ctx, rec)
		for _, out := range outcomes {
			summary.DispatchAttempts++
			switch out.Status {
			case dispatch.StatusAdded:
				summary.DispatchSuccesses++
			case dispatch.StatusAlreadyRequested:
				summary.AlreadyRequested++
			case dispatch.StatusFailed:
				summary.DispatchFailures++
			}
		}
		if dispatch.Delivered(outcomes) {
			toNotify = append(toNotify, delivered{rec: rec, services: dispatch.AddedTargets(outcomes)})
		}
	}

	// Notifying. Best-effort per record.
	summary.State = model.RunStateNotifying
	if o.notifier.Enabled() {
		for _, d := range toNotify {
			if err := o.notifier.Notify(ctx, d.rec, d.services); err != nil {
				summary.NotifyFailures++
				continue
			}
			summary.Notified++
		}
	}

	summary.State = model.RunStateDone
	summary.FinishedAt = o.now()
	o.logSummary(log, summary)
	return summary, nil
}

// wait sleeps for d, returning false if ctx was canceled first.
func (o *Orchestrator) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (o *Orchestrator) logAbort(log *zap.Logger, err error) {
	var parseErr *source.ParseError
	if errors.As(err, &parseErr) {
		log.Error("run aborted: listing structure changed",
			zap.String("source", parseErr.Source),
			zap.String("detail", parseErr.Detail),
		)
		return
	}
	log.Error("run aborted: release source unavailable", zap.Error(err))
}

func (o *Orchestrator) logSummary(log *zap.Logger, s *model.RunSummary) {
	log.Info("release check complete",
		zap.String("date", s.Date),
		zap.Int("found", s.Found),
		zap.Int("enriched", s.Enriched),
		zap.Int("dropped", s.Dropped),
		zap.Int("filtered_in", s.FilteredIn),
		zap.Int("filtered_out", s.FilteredOut),
		zap.Int("dispatch_attempts", s.DispatchAttempts),
		zap.Int("dispatch_successes", s.DispatchSuccesses),
		zap.Int("dispatch_failures", s.DispatchFailures),
		zap.Int("already_requested", s.AlreadyRequested),
		zap.Int("notified", s.Notified),
		zap.Int("notify_failures", s.NotifyFailures),
		zap.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)),
	)
}
