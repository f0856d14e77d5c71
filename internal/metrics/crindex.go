package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexing and query Prometheus metrics.
var (
	BulkEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crindex",
			Name:      "bulk_entries_total",
			Help:      "Bulk entries submitted, by action and outcome",
		},
		[]string{"action", "status"},
	)

	BulkRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crindex",
			Name:      "bulk_requests_total",
			Help:      "Bulk requests submitted to the engine",
		},
		[]string{"status"}, // "ok" / "error"
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crindex",
			Name:      "query_duration_seconds",
			Help:      "Engine query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"}, // "search" / "count" / "cache_lifetime"
	)

	QueryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crindex",
			Name:      "query_failures_total",
			Help:      "Engine queries that failed and degraded to an empty result",
		},
		[]string{"op"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crindex",
			Name:      "query_cache_total",
			Help:      "Query result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	UnresolvedHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crindex",
			Name:      "unresolved_hits_total",
			Help:      "Search hits that could not be mapped back to a content node",
		},
	)
)

var crindexMetricsRegistered bool

// Register registers indexing and query metrics. Must be called once from main.
func Register() {
	if crindexMetricsRegistered {
		return
	}
	prometheus.MustRegister(BulkEntriesTotal)
	prometheus.MustRegister(BulkRequestsTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryFailuresTotal)
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(UnresolvedHitsTotal)
	crindexMetricsRegistered = true
}
