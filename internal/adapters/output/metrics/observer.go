package metrics

import (
	"strconv"
	"time"

	"booking-session-cache/internal/domain"
	"booking-session-cache/internal/ports/output"

	"github.com/prometheus/client_golang/prometheus"
)

// Compile-time check to ensure CacheMetrics implements CacheObserver interface
var _ output.CacheObserver = (*CacheMetrics)(nil)

// CacheMetrics struct - Output adapter exporting request cache activity to prometheus.
// Labels are the endpoint name, never the query key, to keep cardinality bounded.
type CacheMetrics struct {
	queries      *prometheus.CounterVec
	dedup        *prometheus.CounterVec
	fetches      *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	discarded    *prometheus.CounterVec
	invalidated  *prometheus.CounterVec
	evictions    *prometheus.CounterVec
}

// NewCacheMetrics func - Creates the collectors and registers them with reg
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_cache_queries_total",
				Help: "Query intents by endpoint and whether cached data was served without a fetch.",
			},
			[]string{"endpoint", "hit"},
		),
		dedup: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_cache_deduplicated_total",
				Help: "Query intents attached to an in-flight fetch.",
			},
			[]string{"endpoint"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_cache_fetches_total",
				Help: "Fetch results applied to the cache by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		fetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "request_cache_fetch_duration_seconds",
				Help:    "Duration of dispatcher calls made by the cache.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_cache_discarded_total",
				Help: "Superseded fetch results that were dropped.",
			},
			[]string{"endpoint"},
		),
		invalidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_cache_invalidations_total",
				Help: "Entries marked stale by tag invalidation.",
			},
			[]string{"endpoint", "refetch"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_cache_evictions_total",
				Help: "Entries dropped from the cache.",
			},
			[]string{"endpoint"},
		),
	}
	reg.MustRegister(m.queries, m.dedup, m.fetches, m.fetchLatency, m.discarded, m.invalidated, m.evictions)
	return m
}

func (m *CacheMetrics) QueryServed(endpoint string, hit bool) {
	m.queries.WithLabelValues(endpoint, strconv.FormatBool(hit)).Inc()
}

func (m *CacheMetrics) FetchDeduplicated(endpoint string) {
	m.dedup.WithLabelValues(endpoint).Inc()
}

func (m *CacheMetrics) FetchCompleted(endpoint string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.fetches.WithLabelValues(endpoint, outcome).Inc()
	m.fetchLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *CacheMetrics) FetchDiscarded(endpoint string) {
	m.discarded.WithLabelValues(endpoint).Inc()
}

func (m *CacheMetrics) Invalidated(key domain.QueryKey, refetch bool) {
	m.invalidated.WithLabelValues(key.Endpoint(), strconv.FormatBool(refetch)).Inc()
}

func (m *CacheMetrics) Evicted(key domain.QueryKey) {
	m.evictions.WithLabelValues(key.Endpoint()).Inc()
}
