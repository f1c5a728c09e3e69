package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Total number of database errors",
		},
		[]string{"operation", "error_type"},
	)
)

// PoolCollector reads pgxpool statistics at scrape time.
type PoolCollector struct {
	pool *pgxpool.Pool

	total        *prometheus.Desc
	acquired     *prometheus.Desc
	idle         *prometheus.Desc
	max          *prometheus.Desc
	acquireWait  *prometheus.Desc
	emptyAcquire *prometheus.Desc
}

func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, "db", n) }
	return &PoolCollector{
		pool:         pool,
		total:        prometheus.NewDesc(name("connections_open"), "Number of open connections in the pool", nil, nil),
		acquired:     prometheus.NewDesc(name("connections_in_use"), "Number of connections currently acquired", nil, nil),
		idle:         prometheus.NewDesc(name("connections_idle"), "Number of idle connections", nil, nil),
		max:          prometheus.NewDesc(name("connections_max_open"), "Maximum number of connections the pool may open", nil, nil),
		acquireWait:  prometheus.NewDesc(name("acquire_wait_seconds_total"), "Cumulative time spent waiting for a connection", nil, nil),
		emptyAcquire: prometheus.NewDesc(name("empty_acquire_total"), "Acquires that had to wait because the pool was empty", nil, nil),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.acquired
	ch <- c.idle
	ch <- c.max
	ch <- c.acquireWait
	ch <- c.emptyAcquire
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquireWait, prometheus.CounterValue, stat.AcquireDuration().Seconds())
	ch <- prometheus.MustNewConstMetric(c.emptyAcquire, prometheus.CounterValue, float64(stat.EmptyAcquireCount()))
}

// RegisterPool exposes pool statistics on Registry. The returned func
// unregisters them when the pool is closed.
func RegisterPool(pool *pgxpool.Pool) (func(), error) {
	collector := NewPoolCollector(pool)
	if err := Registry.Register(collector); err != nil {
		return nil, err
	}
	return func() { Registry.Unregister(collector) }, nil
}

// RecordQuery records latency for operation and counts err, if any, by class.
//
//	start := time.Now()
//	defer func() { metrics.RecordQuery("lock_event", start, err) }()
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBErrors.WithLabelValues(operation, classifyDBError(err)).Inc()
	}
}

// classifyDBError maps an error to a small fixed set of label values.
func classifyDBError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "query_error"
	}
	switch pgErr.Code {
	case "23505":
		return "unique_violation"
	case "23503", "23514", "23502":
		return "constraint_violation"
	case "40001":
		return "serialization_failure"
	case "40P01":
		return "deadlock"
	case "55P03":
		return "lock_timeout"
	case "57014":
		return "canceled"
	default:
		return "query_error"
	}
}
