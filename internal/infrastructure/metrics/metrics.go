package metrics

import (
	"time"

	"shopsheet-sync/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics exposes counters for sync runs and synced items.
type SyncMetrics struct {
	runs     *prometheus.CounterVec
	items    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewSyncMetrics registers the sync metrics on the given registerer
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)
	return &SyncMetrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Sync runs by result.",
		}, []string{"result"}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_items_total",
			Help: "Catalog items seen by classification.",
		}, []string{"state"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of full sync runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveRun records one completed run. A nil receiver is a no-op so
// metrics stay optional in tests.
func (m *SyncMetrics) ObserveRun(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveSummary records the per-item classification counts of one run
func (m *SyncMetrics) ObserveSummary(summary *domain.SyncSummary) {
	if m == nil || summary == nil {
		return
	}
	m.items.WithLabelValues("added").Add(float64(summary.Added))
	m.items.WithLabelValues("updated").Add(float64(summary.Updated))
	m.items.WithLabelValues("unchanged").Add(float64(summary.Unchanged))
}
