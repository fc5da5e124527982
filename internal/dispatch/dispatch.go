// Package dispatch fans movie requests out to every configured request
// service. Targets are independent: a failure or duplicate on one never
// skips or aborts dispatch to another, and every (record, target) pair
// yields exactly one outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/digitarr/digitarr/internal/model"
	"github.com/digitarr/digitarr/internal/resilience"
)

// Options tunes retry behavior for transport-level failures.
type Options struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryBackoff is the fixed base delay between attempts.
	RetryBackoff time.Duration
}

// DefaultOptions matches the documented contract: two retries with a short
// fixed backoff, transport failures only.
func DefaultOptions() Options {
	return Options{MaxRetries: 2, RetryBackoff: 500 * time.Millisecond}
}

// Dispatcher sends creation requests to a set of targets.
type Dispatcher struct {
	targets []Target
	opts    Options
}

// New creates a Dispatcher over the given targets.
func New(targets []Target, opts Options) *Dispatcher {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	return &Dispatcher{targets: targets, opts: opts}
}

// Targets returns the number of configured targets.
func (d *Dispatcher) Targets() int { return len(d.targets) }

// Dispatch requests rec on every target concurrently and returns one outcome
// per target, in target order.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *model.MovieRecord) []Outcome {
	outcomes := make([]Outcome, len(d.targets))

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i, t := range d.targets {
		i, t := i, t
		g.Go(func() error {
			out := d.requestOne(gctx, t, rec)
			mu.Lock()
			outcomes[i] = out
			mu.Unlock()
			return nil // per-target isolation
		})
	}
	_ = g.Wait()

	return outcomes
}

// requestOne performs the request against a single target, retrying only
// transport-level failures. Application-level rejections (4xx) and the
// duplicate steady state are returned as-is on the first attempt.
func (d *Dispatcher) requestOne(ctx context.Context, t Target, rec *model.MovieRecord) Outcome {
	log := zap.L().With(
		zap.String("target", string(t.Kind())),
		zap.String("title", rec.Title),
		zap.Int("tmdb_id", rec.TMDBID),
	)

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    d.opts.MaxRetries + 1,
		InitialBackoff: d.opts.RetryBackoff,
		Multiplier:     1.0, // fixed backoff between dispatch attempts
		ShouldRetry:    shouldRetry,
		OnRetry:        resilience.RetryLogger(string(t.Kind()), "request"),
	}

	err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
		return t.Request(ctx, rec)
	})

	switch {
	case err == nil:
		log.Info("request added")
		return Outcome{Target: t.Kind(), Status: StatusAdded}
	case eris.Is(err, ErrAlreadyRequested):
		log.Info("already requested, nothing to do")
		return Outcome{Target: t.Kind(), Status: StatusAlreadyRequested}
	default:
		reason := failureReason(err)
		log.Error("request failed", zap.String("reason", reason), zap.Error(err))
		return Outcome{Target: t.Kind(), Status: StatusFailed, Reason: reason}
	}
}

// statusCoder is implemented by the service clients' APIError types.
type statusCoder interface{ HTTPStatus() int }

func shouldRetry(err error) bool {
	if eris.Is(err, ErrAlreadyRequested) {
		return false
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return resilience.IsTransientHTTPStatus(sc.HTTPStatus())
	}
	return resilience.IsTransient(err)
}

func failureReason(err error) string {
	var sc statusCoder
	if errors.As(err, &sc) {
		return fmt.Sprintf("status %d", sc.HTTPStatus())
	}
	if resilience.IsTransient(err) {
		return "transport error"
	}
	return "request error"
}
