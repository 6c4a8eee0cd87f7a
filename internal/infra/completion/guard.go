package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"digestly/internal/observability/logging"
	"digestly/internal/observability/tracing"
	"digestly/internal/resilience/circuitbreaker"
	"digestly/internal/resilience/retry"
	"digestly/internal/usecase/digest"
)

// GuardConfig configures the resilience applied around a Backend.
type GuardConfig struct {
	// Timeout bounds a single attempt. Zero disables it.
	Timeout time.Duration
	// RateLimit is calls per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	// Retry is nil to disable retries.
	Retry *retry.Config
	// CircuitBreaker configures the breaker; Name defaults to "completion-<backend>".
	CircuitBreaker circuitbreaker.Config
}

// Guard wraps a Backend with rate limiting, timeouts, retries and a circuit
// breaker. It implements digest.Completer.
type Guard struct {
	backend        Backend
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	timeout        time.Duration
	metrics        MetricsRecorder
}

var _ digest.Completer = (*Guard)(nil)

// NewGuard wraps backend. metrics may be nil to use the Prometheus recorder.
func NewGuard(backend Backend, cfg GuardConfig, metrics MetricsRecorder) *Guard {
	if metrics == nil {
		metrics = NewPrometheusMetrics()
	}

	cbCfg := cfg.CircuitBreaker
	if cbCfg.Name == "" {
		cbCfg = circuitbreaker.CompletionAPIConfig("completion-" + backend.Name())
	}

	retryCfg := retry.Config{MaxAttempts: 1}
	if cfg.Retry != nil {
		retryCfg = *cfg.Retry
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Guard{
		backend:        backend,
		limiter:        rate.NewLimiter(limit, burst),
		circuitBreaker: circuitbreaker.New(cbCfg),
		retryConfig:    retryCfg,
		timeout:        cfg.Timeout,
		metrics:        metrics,
	}
}

// Complete implements digest.Completer.
func (g *Guard) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	callID := uuid.NewString()
	logger := logging.WithRequestID(ctx, slog.Default()).With(
		slog.String("call_id", callID),
		slog.String("provider", g.backend.Name()))

	ctx, span := tracing.StartSpan(ctx, "completion.call",
		attribute.String("completion.provider", g.backend.Name()),
		attribute.Int("completion.prompt_chars", utf8.RuneCountInString(req.Prompt)),
		attribute.Int("completion.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	text, err := retry.Do(ctx, g.retryConfig, func() (string, error) {
		return g.attempt(ctx, req)
	})
	duration := time.Since(start)
	tracing.EndSpan(span, err)

	g.metrics.RecordDuration(g.backend.Name(), duration)
	g.metrics.RecordCall(g.backend.Name(), err == nil)

	if err != nil {
		if circuitbreaker.IsRejection(err) {
			g.metrics.RecordRejected(g.backend.Name())
			logger.Warn("completion rejected, circuit breaker open",
				slog.String("state", g.circuitBreaker.State().String()))
			return "", fmt.Errorf("%w: %w", digest.ErrCompletionUnavailable, err)
		}
		logger.Error("completion failed",
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", err
	}

	g.metrics.RecordOutputLength(g.backend.Name(), utf8.RuneCountInString(text))
	logger.Debug("completion succeeded",
		slog.Int("prompt_chars", utf8.RuneCountInString(req.Prompt)),
		slog.Int("output_chars", utf8.RuneCountInString(text)),
		slog.Duration("duration", duration))
	return text, nil
}

// attempt performs one rate-limited call through the circuit breaker.
func (g *Guard) attempt(ctx context.Context, req digest.CompletionRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("completion rate limit wait: %w", err)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	result, err := g.circuitBreaker.Execute(func() (interface{}, error) {
		return g.backend.Complete(callCtx, req)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Provider returns the name of the wrapped backend.
func (g *Guard) Provider() string {
	return g.backend.Name()
}

// CircuitOpen reports whether calls are currently rejected without reaching the backend.
func (g *Guard) CircuitOpen() bool {
	return g.circuitBreaker.IsOpen()
}
