package service

import (
	"netbaseline/internal/database"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the comparison engine collectors
type Metrics struct {
	Cycles          *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	Events          *prometheus.CounterVec
	AlertsCreated   prometheus.Counter
	AlertsSkipped   prometheus.Counter
	PublishFailures *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netbaseline",
			Name:      "compare_cycles_total",
			Help:      "Baseline comparison cycles by result.",
		}, []string{"result"}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netbaseline",
			Name:      "compare_cycle_duration_seconds",
			Help:      "Duration of baseline comparison cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netbaseline",
			Name:      "change_events_total",
			Help:      "Network change events created by type.",
		}, []string{"event_type"}),
		AlertsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "netbaseline",
			Name:      "alerts_created_total",
			Help:      "Alerts created for network change events.",
		}),
		AlertsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "netbaseline",
			Name:      "alerts_skipped_total",
			Help:      "Alerts skipped because no device could be resolved.",
		}),
		PublishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netbaseline",
			Name:      "alert_publish_failures_total",
			Help:      "Failed alert.triggered deliveries by publisher.",
		}, []string{"publisher"}),
	}
}

// registerDatabaseStats exposes connection pool and query statistics
func registerDatabaseStats(reg prometheus.Registerer, db database.Interface) {
	f := promauto.With(reg)
	gauge := func(name, help string, value func(database.Stats) float64) {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "netbaseline",
			Subsystem: "db",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(db.Stats()) })
	}

	gauge("open_connections", "Open database connections.", func(s database.Stats) float64 {
		return float64(s.OpenConnections)
	})
	gauge("in_use_connections", "Database connections in use.", func(s database.Stats) float64 {
		return float64(s.InUse)
	})
	gauge("queries", "Queries executed since start.", func(s database.Stats) float64 {
		return float64(s.QueryCount)
	})
	gauge("query_errors", "Failed queries since start.", func(s database.Stats) float64 {
		return float64(s.QueryErrors)
	})
	gauge("slow_queries", "Queries slower than the configured threshold since start.", func(s database.Stats) float64 {
		return float64(s.SlowQueries)
	})
}
