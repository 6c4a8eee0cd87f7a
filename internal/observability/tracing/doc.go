// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created through the global tracer provider, so the process decides
// where they go by installing a provider; without one they are no-ops.
//
//   - Middleware traces every HTTP request and propagates W3C trace context
//   - StartSpan/EndSpan wrap pipeline stages (summarize, map chunk, combine, answer)
//
// Example usage:
//
//	ctx, span := tracing.StartSpan(ctx, "digest.combine",
//	    attribute.Int("digest.partials", len(partials)))
//	defer func() { tracing.EndSpan(span, err) }()
package tracing
