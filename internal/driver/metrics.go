package driver

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// driverMetrics holds the prometheus stats shared by every Driver registered
// against the same Registerer.
type driverMetrics struct {
	queries  *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	threads  prometheus.Gauge
}

func newDriverMetrics(stats prometheus.Registerer) *driverMetrics {
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlpp_queries_total",
		Help: "Statements sent to the server, by kind.",
	}, []string{"kind"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlpp_query_errors_total",
		Help: "Statements the server rejected or that failed in transit, by kind.",
	}, []string{"kind"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sqlpp_query_duration_seconds",
		Help:    "Time from sending a statement until its result is available.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	threads := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sqlpp_registered_threads",
		Help: "Goroutines registered through ThreadStart and not yet ended.",
	})

	if stats == nil {
		return &driverMetrics{queries: queries, failures: failures, latency: latency, threads: threads}
	}
	return &driverMetrics{
		queries:  register(stats, queries),
		failures: register(stats, failures),
		latency:  register(stats, latency),
		threads:  register(stats, threads),
	}
}

// register returns the collector already registered under the same
// descriptor, if any, so several drivers can share one registry.
func register[C prometheus.Collector](stats prometheus.Registerer, c C) C {
	err := stats.Register(c)
	if err == nil {
		return c
	}
	are := prometheus.AlreadyRegisteredError{}
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

func (m *driverMetrics) observe(kind string, took time.Duration, err error) {
	m.queries.WithLabelValues(kind).Inc()
	m.latency.WithLabelValues(kind).Observe(took.Seconds())
	if err != nil {
		m.failures.WithLabelValues(kind).Inc()
	}
}
