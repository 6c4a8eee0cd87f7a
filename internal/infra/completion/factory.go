package completion

import (
	"fmt"
	"log/slog"

	"digestly/internal/config"
	"digestly/internal/resilience/circuitbreaker"
	"digestly/internal/resilience/retry"
)

// NewBackend builds the Backend selected by cfg.Provider.
func NewBackend(cfg *config.AIConfig) (Backend, error) {
	switch cfg.Provider {
	case config.ProviderCompatible:
		return NewCompatible(CompatibleConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case config.ProviderClaude:
		return NewClaude(ClaudeConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case config.ProviderEcho:
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

// NewFromConfig builds the configured backend wrapped in a Guard.
func NewFromConfig(cfg *config.AIConfig) (*Guard, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	guardCfg := GuardConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		CircuitBreaker: circuitbreaker.Config{
			Name:             "completion-" + backend.Name(),
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
			MinRequests:      cfg.CircuitBreaker.MinRequests,
		},
	}
	if cfg.RetryEnabled {
		r := retry.CompletionAPIConfig()
		guardCfg.Retry = &r
	}

	slog.Info("completion backend initialized",
		slog.String("provider", backend.Name()),
		slog.String("model", cfg.Model),
		slog.Float64("rate_limit", cfg.RateLimit),
		slog.Bool("retry_enabled", cfg.RetryEnabled))

	return NewGuard(backend, guardCfg, nil), nil
}
