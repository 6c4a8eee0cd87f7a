// Package observability groups the logging, metrics, tracing and SLO
// packages used by the digest service.
//
// Subpackages:
//   - logging: slog construction and request-scoped loggers
//   - metrics: Prometheus recorders for summaries, questions, sessions and storage
//   - tracing: OpenTelemetry spans for the pipeline and HTTP middleware
//   - slo: windowed service level indicators published as gauges
package observability
