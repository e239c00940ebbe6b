package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the scholar gateway.
// Metrics are organized by subsystem: provider sources, cache and the HTTP facade.
// All counters and histograms are registered via promauto with the default registry.
type Metrics struct {
	// SourceRequestsTotal counts HTTP requests to provider APIs, labeled by source and status code.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed provider requests, labeled by source and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes provider request duration in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts 429 responses, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// SourceRetries counts retry attempts, labeled by source.
	SourceRetries *prometheus.CounterVec

	// PapersParsed counts normalized papers, labeled by source.
	PapersParsed *prometheus.CounterVec

	// PapersRejected counts raw records the normalizer could not turn into a valid paper.
	PapersRejected *prometheus.CounterVec

	// CacheHits counts cache hits, labeled by operation prefix.
	CacheHits *prometheus.CounterVec

	// CacheMisses counts cache misses, labeled by operation prefix.
	CacheMisses *prometheus.CounterVec

	// CacheErrors counts backend failures, labeled by backend and operation.
	CacheErrors *prometheus.CounterVec

	// HTTPRequestsTotal counts facade requests, labeled by route and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes facade request duration in seconds, labeled by route.
	HTTPRequestDuration *prometheus.HistogramVec

	// LLMRequestsTotal counts LLM analysis calls, labeled by provider and analysis type.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM analysis calls, labeled by provider.
	LLMRequestsFailed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to provider APIs",
		}, []string{"source", "status"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed provider requests",
		}, []string{"source", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of provider requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limited provider responses",
		}, []string{"source"}),
		SourceRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_retries_total",
			Help:      "Total number of provider request retries",
		}, []string{"source"}),
		PapersParsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_parsed_total",
			Help:      "Total number of provider records normalized into papers",
		}, []string{"source"}),
		PapersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_rejected_total",
			Help:      "Total number of provider records rejected during normalization",
		}, []string{"source"}),

		// Cache
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}, []string{"operation"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}, []string{"operation"}),
		CacheErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Total number of cache backend errors",
		}, []string{"backend", "operation"}),

		// HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP facade requests",
		}, []string{"route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP facade requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM analysis requests",
		}, []string{"provider", "analysis_type"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM analysis requests",
		}, []string{"provider"}),
	}
}

// RecordSourceRequest records a completed request to a provider.
func (m *Metrics) RecordSourceRequest(source string, statusCode int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(source, strconv.Itoa(statusCode)).Inc()
	m.SourceRequestDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to a provider.
func (m *Metrics) RecordSourceRequestFailed(source, errorType string) {
	if m == nil {
		return
	}
	m.SourceRequestsFailed.WithLabelValues(source, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a provider.
func (m *Metrics) RecordSourceRateLimited(source string) {
	if m == nil {
		return
	}
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordSourceRetry records a retry attempt against a provider.
func (m *Metrics) RecordSourceRetry(source string) {
	if m == nil {
		return
	}
	m.SourceRetries.WithLabelValues(source).Inc()
}

// RecordPapersParsed records normalizer output for a provider.
func (m *Metrics) RecordPapersParsed(source string, parsed, rejected int) {
	if m == nil {
		return
	}
	m.PapersParsed.WithLabelValues(source).Add(float64(parsed))
	m.PapersRejected.WithLabelValues(source).Add(float64(rejected))
}

// RecordCacheHit records a cache hit for an operation prefix.
func (m *Metrics) RecordCacheHit(operation string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(operation).Inc()
}

// RecordCacheMiss records a cache miss for an operation prefix.
func (m *Metrics) RecordCacheMiss(operation string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(operation).Inc()
}

// RecordCacheError records a cache backend failure.
func (m *Metrics) RecordCacheError(backend, operation string) {
	if m == nil {
		return
	}
	m.CacheErrors.WithLabelValues(backend, operation).Inc()
}

// RecordHTTPRequest records a facade request.
func (m *Metrics) RecordHTTPRequest(route string, statusCode int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}

// RecordLLMRequest records an LLM analysis call.
func (m *Metrics) RecordLLMRequest(provider, analysisType string) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, analysisType).Inc()
}

// RecordLLMRequestFailed records a failed LLM analysis call.
func (m *Metrics) RecordLLMRequestFailed(provider string) {
	if m == nil {
		return
	}
	m.LLMRequestsFailed.WithLabelValues(provider).Inc()
}
