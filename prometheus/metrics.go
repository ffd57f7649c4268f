package prometheus

import (
	"time"

	"github.com/Alonso-dfg/Project-Alimentos/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Per-entity CRUD operation metrics
	EntityOperationsCounter prometheus.CounterVec

	// External importer metrics
	ImportFetchedCounter    prometheus.Counter
	ImportPersistedCounter  prometheus.Counter
	ImportErrorsCounter     prometheus.Counter
	UpstreamRequestDuration prometheus.HistogramVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// CRUD operation metrics, labeled by entity and operation
	EntityOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Total number of catalog entity operations",
		},
		[]string{"entity", "operation"},
	)

	// Importer metrics
	ImportFetchedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_import_fetched_total",
			Help: "Total number of product records fetched from the external API",
		},
	)

	ImportPersistedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_import_persisted_total",
			Help: "Total number of imported products persisted locally",
		},
	)

	ImportErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_import_errors_total",
			Help: "Total number of external API call failures",
		},
	)

	// Upstream call duration
	UpstreamRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_upstream_request_duration_seconds",
			Help:    "Duration of outbound external API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
}

// RecordEntityOperation increments the counter for a CRUD operation
func RecordEntityOperation(entity, operation string) {
	EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// TrackUpstreamRequest returns a function that records the duration of an
// outbound external API call
func TrackUpstreamRequest(endpoint string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration)
	}
}
