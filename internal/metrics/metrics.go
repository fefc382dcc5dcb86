package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptrelay_requests_total",
			Help: "Total number of generation requests processed",
		},
		[]string{"endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptrelay_request_duration_seconds",
			Help:    "Generation request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint", "provider"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptrelay_cache_hits_total",
			Help: "Total number of prompt cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptrelay_cache_misses_total",
			Help: "Total number of prompt cache misses",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptrelay_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptrelay_upstream_errors_total",
			Help: "Total number of upstream provider errors",
		},
		[]string{"provider", "error_type"},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "promptrelay_active_streams",
			Help: "Number of active streaming connections",
		},
	)

	StreamChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptrelay_stream_chunks_total",
			Help: "Total number of stream fragments relayed to callers",
		},
		[]string{"provider"},
	)
)

func RecordRequest(endpoint, status string) {
	RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

func ObserveDuration(endpoint, provider string, seconds float64) {
	RequestDuration.WithLabelValues(endpoint, provider).Observe(seconds)
}

func RecordCacheHit()  { CacheHits.Inc() }
func RecordCacheMiss() { CacheMisses.Inc() }

func RecordRateLimitHit() { RateLimitHits.Inc() }

func RecordUpstreamError(provider, errorType string) {
	UpstreamErrors.WithLabelValues(provider, errorType).Inc()
}

func RecordStreamChunk(provider string) {
	StreamChunksTotal.WithLabelValues(provider).Inc()
}
