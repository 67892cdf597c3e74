package metrics

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const MetricPrefix = "battstats_"

// Metrics holds the query metrics of a single run. A run is short-lived, so rather than being
// scraped the metrics are written to a file (see WriteToTextfile) for node_exporter's textfile collector.
type Metrics struct {
	registry      *prometheus.Registry
	queryDuration *prometheus.HistogramVec
	queriesTotal  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricPrefix + "query_duration_seconds",
			Help:    "Time taken to run a query, including acquiring a connection",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation"}),
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricPrefix + "queries_total",
			Help: "Number of queries run, by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
	m.registry.MustRegister(m.queryDuration, m.queriesTotal)
	return m
}

func (m *Metrics) RecordQuery(operation string, outcome string, duration time.Duration) {
	m.queryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.queriesTotal.WithLabelValues(operation, outcome).Inc()
}

// RegisterDbStats exports the connection pool statistics of db.
func (m *Metrics) RegisterDbStats(db *sql.DB) error {
	return errors.WithStack(m.registry.Register(collectors.NewDBStatsCollector(db, "battstats")))
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteToTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteToTextfile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, m.registry), "writing metrics to %s", path)
}
