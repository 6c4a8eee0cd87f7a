// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the business metrics of the digest service:
//   - Summarize operations by detail level and outcome
//   - Chunk counts and per-stage durations of the pipeline
//   - Follow-up question outcomes
//   - Session context counts and evictions
//   - Database query durations
//
// All metrics are registered with the Prometheus default registry and exposed
// via the /metrics endpoint. HTTP metrics live with the HTTP middleware.
//
// Example usage:
//
//	start := time.Now()
//	// ... run the map step ...
//	metrics.RecordStageDuration("map", time.Since(start))
package metrics
