package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec

	// Business metrics
	ProgressSubmissions *prometheus.CounterVec
	LeaderboardBuilds   *prometheus.CounterVec
	LeaderboardDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a collector with its own registry so that several
// instances can coexist in one process.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of table operations",
			},
			[]string{"operation", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Table operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
		ProgressSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "progress_submissions_total",
				Help:      "Total number of progress submissions",
			},
			[]string{"status"},
		),
		LeaderboardBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "leaderboard_builds_total",
				Help:      "Total number of leaderboard aggregations",
			},
			[]string{"scope"},
		),
		LeaderboardDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "leaderboard_build_duration_seconds",
				Help:      "Leaderboard aggregation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scope"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of leaderboard cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of leaderboard cache misses",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.BreakerState,
		c.ProgressSubmissions,
		c.LeaderboardBuilds,
		c.LeaderboardDuration,
		c.CacheHits,
		c.CacheMisses,
	)

	return c
}

// Registry exposes the underlying registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordStoreOperation records one table call and its outcome.
func (c *Collector) RecordStoreOperation(operation string, d time.Duration, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.StoreOperations.WithLabelValues(operation, status).Inc()
	c.StoreDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// SetBreakerState publishes the numeric state of a named circuit breaker.
func (c *Collector) SetBreakerState(name string, state float64) {
	if c == nil {
		return
	}
	c.BreakerState.WithLabelValues(name).Set(state)
}

// RecordProgressSubmission counts a submit by its resulting status.
func (c *Collector) RecordProgressSubmission(status string) {
	if c == nil {
		return
	}
	c.ProgressSubmissions.WithLabelValues(status).Inc()
}

// RecordLeaderboardBuild records a full aggregation for a scope kind.
func (c *Collector) RecordLeaderboardBuild(scope string, d time.Duration) {
	if c == nil {
		return
	}
	c.LeaderboardBuilds.WithLabelValues(scope).Inc()
	c.LeaderboardDuration.WithLabelValues(scope).Observe(d.Seconds())
}

// RecordCacheLookup counts a hit or a miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}
