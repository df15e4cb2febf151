package metrics

import "github.com/prometheus/client_golang/prometheus"

// Upstream and aggregation Prometheus metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smallgiants",
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream page requests",
		},
		[]string{"status"}, // HTTP status code or "error"
	)

	UpstreamRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "smallgiants",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream page request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	UpstreamRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smallgiants",
			Name:      "upstream_retries_total",
			Help:      "Total number of page request retries",
		},
	)

	PagesFetchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smallgiants",
			Name:      "pages_fetched_total",
			Help:      "Total number of upstream pages fetched and parsed",
		},
	)

	AggregationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smallgiants",
			Name:      "aggregations_total",
			Help:      "Total number of multi-page aggregations",
		},
		[]string{"status"}, // "success" / "error"
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smallgiants",
			Name:      "response_cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var upstreamMetricsRegistered bool

// RegisterUpstreamMetrics registers upstream, aggregation and cache metrics. Must be called once from main.
func RegisterUpstreamMetrics() {
	if upstreamMetricsRegistered {
		return
	}
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(UpstreamRetriesTotal)
	prometheus.MustRegister(PagesFetchedTotal)
	prometheus.MustRegister(AggregationsTotal)
	prometheus.MustRegister(ResponseCacheTotal)
	upstreamMetricsRegistered = true
}
