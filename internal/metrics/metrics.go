package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the scrape run instrumentation on its own registry so the
// exposition endpoint carries only these series. A nil *Metrics is valid
// and turns every method into a no-op, which keeps instrumentation
// optional for the CLI.
type Metrics struct {
	registry    *prometheus.Registry
	attempts    *prometheus.CounterVec
	records     *prometheus.CounterVec
	runDuration prometheus.Histogram
	activeRuns  prometheus.Gauge
}

// New creates and registers the scraper metric set.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricescout",
			Name:      "site_attempts_total",
			Help:      "Scrape attempts per site, labeled by terminal outcome.",
		}, []string{"site", "outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricescout",
			Name:      "records_total",
			Help:      "Product records extracted per site.",
		}, []string{"site"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricescout",
			Name:      "run_duration_seconds",
			Help:      "Wall time of full multi-site runs.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 10),
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pricescout",
			Name:      "active_runs",
			Help:      "Runs currently holding a user slot.",
		}),
	}

	m.registry.MustRegister(m.attempts, m.records, m.runDuration, m.activeRuns)
	return m
}

// Handler exposes the registry for mounting on the HTTP router.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncAttempts records the attempts a site consumed and its terminal outcome.
func (m *Metrics) IncAttempts(site, outcome string, attempts int) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(site, outcome).Add(float64(attempts))
}

// AddRecords counts records extracted from one site.
func (m *Metrics) AddRecords(site string, n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(site).Add(float64(n))
}

// ObserveRun records the duration of one full run.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

// RunStarted and RunFinished track the active-run gauge.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
}
