// Package logging builds the slog loggers used by the server and the CLI and
// carries request-scoped attributes through context.
//
//	logger := logging.WithRequestID(ctx, slog.Default())
//	logger.Info("summary completed", slog.Int("chunks", n))
package logging
