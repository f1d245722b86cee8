package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tutomart/pricescout/internal/coordinate"
	"github.com/tutomart/pricescout/internal/metrics"
)

// ArtifactSink receives the normalized records of a successful site scrape
// for durable export. Writes are best-effort and never block a run.
type ArtifactSink interface {
	Write(site string, records []ProductRecord) error
}

// OutcomePublisher broadcasts per-site outcomes for operator observability.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, runID, site, outcome string, records int)
}

// Orchestrator executes a full multi-site scrape run: acquire the user's
// slot, walk the selected sites sequentially through the retry machine,
// merge the outcomes, and fan results out to the sink and publisher.
type Orchestrator struct {
	runner     *Runner
	sites      []SiteConfig
	slots      *coordinate.UserSlots
	pacer      *coordinate.Pacer
	sink       ArtifactSink
	publisher  OutcomePublisher
	metrics    *metrics.Metrics
	runTimeout time.Duration
	logger     *slog.Logger
}

// OrchestratorOptions wires the orchestrator's collaborators. Sink,
// publisher and metrics are optional.
type OrchestratorOptions struct {
	Factory     SessionFactory
	Sites       []SiteConfig
	MaxAttempts int
	UserWait    time.Duration
	RunTimeout  time.Duration
	PaceMin     time.Duration
	PaceMax     time.Duration
	Sink        ArtifactSink
	Publisher   OutcomePublisher
	Metrics     *metrics.Metrics
	Backoff     func(int) time.Duration
}

// NewOrchestrator builds an orchestrator from options, applying defaults
// for anything unset.
func NewOrchestrator(opts OrchestratorOptions, logger *slog.Logger) *Orchestrator {
	if opts.Sites == nil {
		opts.Sites = Sites()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.UserWait <= 0 {
		opts.UserWait = 120 * time.Second
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 10 * time.Minute
	}
	if opts.PaceMin <= 0 {
		opts.PaceMin = 2 * time.Second
	}
	if opts.PaceMax < opts.PaceMin {
		opts.PaceMax = 5 * time.Second
	}

	return &Orchestrator{
		runner:     NewRunner(opts.Factory, opts.MaxAttempts, opts.Backoff, logger),
		sites:      opts.Sites,
		slots:      coordinate.NewUserSlots(opts.UserWait),
		pacer:      coordinate.NewPacer(opts.PaceMin, opts.PaceMax),
		sink:       opts.Sink,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		runTimeout: opts.RunTimeout,
		logger:     logger.With("component", "orchestrator"),
	}
}

// Run performs one scrape run for a user. It returns the merged records
// and an aggregate error. Partial success is a valid outcome: per-site
// failures are logged and published but only surface to the caller when no
// site produced any record.
func (o *Orchestrator) Run(ctx context.Context, userID string, q Query) ([]ProductRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	sites, err := SelectSites(o.sites, q.TargetSite)
	if err != nil {
		return nil, err
	}

	release, err := o.slots.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()
	o.metrics.RunStarted()
	defer o.metrics.RunFinished()

	ctx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID, "user_id", userID)
	logger.Info("run started", "brand", q.Brand, "product", q.Product, "sites", len(sites))
	start := time.Now()

	var records []ProductRecord
	var siteErr error

	for i, site := range sites {
		if i > 0 {
			if err := o.pacer.Wait(ctx); err != nil {
				siteErr = err
				break
			}
		}

		result := o.runner.RunSite(ctx, site, q)
		o.observe(ctx, runID, result)

		switch result.Outcome.Kind {
		case OutcomeSuccess:
			records = append(records, result.Outcome.Records...)
			o.export(site.Name, result.Outcome.Records)
		case OutcomeEmpty:
			logger.Info("no results on site", "site", site.Name)
		case OutcomeBlocked, OutcomeError:
			// One site giving up never aborts the rest of the run.
			logger.Warn("site failed",
				"site", site.Name,
				"attempts", result.Attempts,
				"outcome", result.Outcome.Kind.String(),
				"error", result.Outcome.Err,
			)
			if siteErr == nil {
				siteErr = result.Outcome.Err
			}
		}
	}

	o.metrics.ObserveRun(time.Since(start))
	logger.Info("run finished", "records", len(records), "elapsed", time.Since(start))

	return Merge(records, siteErr)
}

// Merge applies the aggregate policy: records concatenated in site order
// win outright; the error surfaces only when nothing was found, preferring
// a recorded per-site error over the generic no-results.
func Merge(records []ProductRecord, siteErr error) ([]ProductRecord, error) {
	if len(records) > 0 {
		return records, nil
	}
	if siteErr != nil {
		return nil, siteErr
	}
	return nil, ErrNoResults
}

func (o *Orchestrator) observe(ctx context.Context, runID string, result SiteResult) {
	o.metrics.IncAttempts(result.Site, result.Outcome.Kind.String(), result.Attempts)
	o.metrics.AddRecords(result.Site, len(result.Outcome.Records))
	if o.publisher != nil {
		o.publisher.PublishOutcome(ctx, runID, result.Site, result.Outcome.Kind.String(), len(result.Outcome.Records))
	}
}

// export hands records to the artifact sink without blocking the run.
func (o *Orchestrator) export(site string, records []ProductRecord) {
	if o.sink == nil || len(records) == 0 {
		return
	}
	go func() {
		if err := o.sink.Write(site, records); err != nil {
			o.logger.Warn("artifact export failed", "site", site, "error", err)
		}
	}()
}
