package observability

import (
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the application's Prometheus metrics.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	requestsTotal    *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	expensesRecorded *prometheus.CounterVec
	reconciliations  prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lana_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lana_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lana_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lana_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		expensesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lana_expenses_recorded_total",
				Help: "Total expenses written to the ledger, by type.",
			},
			[]string{"type"},
		),
		reconciliations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lana_week_reconciliations_total",
				Help: "Total weekly ledger reconciliation runs.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// RecordCacheHit increments the cache hit counter.
func (m *Metrics) RecordCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordExpense counts a ledger expense write by type.
func (m *Metrics) RecordExpense(expenseType string) {
	m.expensesRecorded.WithLabelValues(expenseType).Inc()
}

// RecordReconciliation counts one reconciliation pass over a week row.
func (m *Metrics) RecordReconciliation() {
	m.reconciliations.Inc()
}

// Snapshot returns the cumulative counters in a form suitable for the
// GET /v1/metrics/summary endpoint.
func (m *Metrics) Snapshot() *domain.MetricsSummary {
	total := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errors := getCounterValue(m.requestsTotal, "error")
	hits := getCounterValue(m.cacheHits, "dashboard")
	misses := getCounterValue(m.cacheMisses, "dashboard")

	expenses := float64(0)
	for _, t := range []string{domain.ExpenseTypeBill, domain.ExpenseTypeTanda, domain.ExpenseTypeSaving, domain.ExpenseTypePurchase} {
		expenses += getCounterValue(m.expensesRecorded, t)
	}

	errorRate := float64(0)
	if total > 0 {
		errorRate = errors / total
	}
	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.MetricsSummary{
		TotalRequests:    int64(total),
		ErrorRate:        errorRate,
		CacheHitRate:     cacheHitRate,
		ExpensesRecorded: int64(expenses),
		Reconciliations:  getPlainCounterValue(m.reconciliations),
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getPlainCounterValue(c prometheus.Counter) int64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return int64(*m.Counter.Value)
	}
	return 0
}
