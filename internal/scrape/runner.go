package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Runner wraps one site's adapter in the block/retry state machine. Every
// attempt burns its browser and proxy session and starts the next one
// clean; that session churn is the core anti-block strategy.
type Runner struct {
	factory     SessionFactory
	maxAttempts int
	backoff     func(attempt int) time.Duration
	logger      *slog.Logger
}

// NewRunner creates a retry runner. maxAttempts bounds browser-launch+
// scrape attempts per site; backoff may be nil for the default randomized
// delay scaled by attempt number.
func NewRunner(factory SessionFactory, maxAttempts int, backoff func(int) time.Duration, logger *slog.Logger) *Runner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff == nil {
		backoff = defaultBackoff
	}
	return &Runner{
		factory:     factory,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		logger:      logger.With("component", "retry_runner"),
	}
}

// defaultBackoff waits 2-5 seconds scaled by the attempt number.
func defaultBackoff(attempt int) time.Duration {
	base := 2*time.Second + time.Duration(rand.Int63n(int64(3*time.Second)))
	return time.Duration(attempt) * base
}

// RunSite drives one site to a terminal result. The collector persists
// across attempts so records extracted before a mid-run block survive the
// retry, and the seen set keeps retried pages from duplicating them.
func (r *Runner) RunSite(ctx context.Context, site SiteConfig, q Query) SiteResult {
	logger := r.logger.With("site", site.Name)
	engine := NewEngine(site, r.logger)
	col := NewCollector()

	var last Outcome
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		last = r.attempt(ctx, engine, q, col)
		logger.Info("attempt finished",
			"attempt", attempt,
			"outcome", last.Kind.String(),
			"records", len(col.Records),
		)

		switch last.Kind {
		case OutcomeSuccess:
			return SiteResult{Site: site.Name, Attempts: attempt, Outcome: last}
		case OutcomeEmpty:
			// No cards on the very first page means the query has no
			// results here; that is not a block, so retrying is pointless.
			return SiteResult{Site: site.Name, Attempts: attempt, Outcome: last}
		case OutcomeBlocked, OutcomeError:
			if attempt == r.maxAttempts {
				break
			}
			delay := r.backoff(attempt)
			logger.Warn("retrying with fresh session", "attempt", attempt, "backoff", delay, "error", last.Err)
			select {
			case <-ctx.Done():
				return SiteResult{Site: site.Name, Attempts: attempt, Outcome: Outcome{Kind: OutcomeError, Err: ctx.Err()}}
			case <-time.After(delay):
			}
		}
	}

	// Give up — but an earlier attempt may have extracted records before
	// the block hit, and those are still valid results.
	if len(col.Records) > 0 {
		return SiteResult{
			Site:     site.Name,
			Attempts: r.maxAttempts,
			Outcome:  Outcome{Kind: OutcomeSuccess, Records: col.Records},
		}
	}
	return SiteResult{Site: site.Name, Attempts: r.maxAttempts, Outcome: last}
}

// attempt runs one session-scoped adapter invocation, guaranteeing the
// session is torn down on every exit path, including panics from a
// misbehaving extraction.
func (r *Runner) attempt(ctx context.Context, engine *Engine, q Query, col *Collector) (out Outcome) {
	sess, err := r.factory.Start(ctx)
	if err != nil {
		return Outcome{Kind: OutcomeError, Err: err}
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			r.logger.Warn("session teardown reported errors", "error", closeErr)
		}
		if rec := recover(); rec != nil {
			r.logger.Error("adapter panicked", "panic", rec)
			out = Outcome{Kind: OutcomeError, Err: fmt.Errorf("adapter panic: %v", rec)}
		}
	}()

	return engine.Run(ctx, sess, q, col)
}
