// Package observability holds the gateway's zerolog logger construction,
// its Prometheus collectors and the request-ID context plumbing.
//
// Loggers are plain zerolog.Logger values. Components derive a child logger
// tagged with component and, where relevant, source:
//
//	logger := observability.NewLogger(observability.LoggingConfig{Level: "info", Format: "json"})
//	logger = observability.WithSourceContext(logger, "scopus")
//
// Log fields used across the gateway:
//
//	request_id  correlation ID of the HTTP request (X-Correlation-ID)
//	source      provider name: openalex, scopus, sciencedirect
//	keyword     search keyword
//	paper_id    provider-native paper identifier
//	cache_key   derived cache key
//
// Metrics are registered once per process by NewMetrics. A nil *Metrics is
// valid and turns every Record method into a no-op, so tests and the CLI run
// without a registry.
package observability
