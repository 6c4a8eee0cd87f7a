package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pkgconfig "digestly/pkg/config"
)

// Completion providers.
const (
	ProviderCompatible = "compatible"
	ProviderOpenAI     = "openai"
	ProviderClaude     = "claude"
	ProviderEcho       = "echo"
)

// Defaults for the OpenAI-compatible endpoint the service ships with.
const (
	DefaultAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultAIModel   = "gemini-2.0-flash"
)

// AIConfig holds configuration for the completion service.
type AIConfig struct {
	// Provider selects the client: compatible, openai, claude or echo.
	// Default: compatible
	Provider string

	// APIKey authenticates against the provider. Required unless Provider is echo.
	APIKey string

	// BaseURL overrides the provider endpoint.
	// Default for compatible: the Gemini OpenAI-compatible endpoint.
	BaseURL string

	// Model is the provider model identifier. Default: gemini-2.0-flash
	Model string

	// Timeout bounds a single completion call. Default: 60s
	Timeout time.Duration

	// RateLimit is the sustained number of completion calls per second. Default: 2
	RateLimit float64

	// RateBurst is the token bucket size. Default: 5
	RateBurst int

	// RetryEnabled turns on bounded retries of transient failures. Default: true
	RetryEnabled bool

	// CircuitBreaker for completion calls.
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig for completion service resilience.
type CircuitBreakerConfig struct {
	// MaxRequests in half-open state.
	MaxRequests uint32

	// Interval for clearing failure counts.
	Interval time.Duration

	// Timeout before transitioning from open to half-open.
	Timeout time.Duration

	// FailureThreshold ratio to trip circuit (0.0 to 1.0).
	FailureThreshold float64

	// MinRequests before calculating failure ratio.
	MinRequests uint32
}

// LoadAIConfig loads completion configuration from environment variables.
func LoadAIConfig() (*AIConfig, error) {
	provider := strings.ToLower(pkgconfig.GetEnvString("AI_PROVIDER", ProviderCompatible))

	baseURL, model := "", ""
	switch provider {
	case ProviderCompatible:
		baseURL, model = DefaultAIBaseURL, DefaultAIModel
	case ProviderOpenAI:
		model = "gpt-4.1-mini"
	case ProviderClaude:
		model = "claude-sonnet-4-5"
	}
	config := &AIConfig{
		Provider:     provider,
		APIKey:       pkgconfig.GetEnvString("AI_API_KEY", ""),
		BaseURL:      pkgconfig.GetEnvString("AI_BASE_URL", baseURL),
		Model:        pkgconfig.GetEnvString("AI_MODEL", model),
		Timeout:      pkgconfig.GetEnvDuration("AI_TIMEOUT", 60*time.Second),
		RateLimit:    pkgconfig.GetEnvFloat("AI_RATE_LIMIT", 2),
		RateBurst:    pkgconfig.GetEnvInt("AI_RATE_BURST", 5),
		RetryEnabled: pkgconfig.GetEnvBool("AI_RETRY_ENABLED", true),
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      uint32(pkgconfig.GetEnvInt("AI_CB_MAX_REQUESTS", 3)),
			Interval:         pkgconfig.GetEnvDuration("AI_CB_INTERVAL", 30*time.Second),
			Timeout:          pkgconfig.GetEnvDuration("AI_CB_TIMEOUT", 60*time.Second),
			FailureThreshold: pkgconfig.GetEnvFloat("AI_CB_FAILURE_THRESHOLD", 0.6),
			MinRequests:      uint32(pkgconfig.GetEnvInt("AI_CB_MIN_REQUESTS", 8)),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *AIConfig) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderCompatible, ProviderOpenAI, ProviderClaude:
		if c.APIKey == "" {
			errs = append(errs, fmt.Errorf("AI_API_KEY is required for provider %q", c.Provider))
		}
	case ProviderEcho:
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be one of compatible, openai, claude, echo; got %q", c.Provider))
	}

	if c.Provider == ProviderCompatible && c.BaseURL == "" {
		errs = append(errs, errors.New("AI_BASE_URL cannot be empty for provider compatible"))
	}
	if c.Provider != ProviderEcho && c.Model == "" {
		errs = append(errs, errors.New("AI_MODEL cannot be empty"))
	}
	if err := pkgconfig.ValidateDurationRange(c.Timeout, time.Second, 10*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("AI_TIMEOUT: %w", err))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("AI_RATE_LIMIT must be positive, got %v", c.RateLimit))
	}
	if c.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("AI_RATE_BURST must be positive, got %d", c.RateBurst))
	}
	if c.CircuitBreaker.MaxRequests == 0 {
		errs = append(errs, errors.New("AI_CB_MAX_REQUESTS must be positive"))
	}
	if c.CircuitBreaker.Interval <= 0 {
		errs = append(errs, errors.New("AI_CB_INTERVAL must be positive"))
	}
	if c.CircuitBreaker.Timeout <= 0 {
		errs = append(errs, errors.New("AI_CB_TIMEOUT must be positive"))
	}
	if c.CircuitBreaker.FailureThreshold <= 0 || c.CircuitBreaker.FailureThreshold > 1 {
		errs = append(errs, errors.New("AI_CB_FAILURE_THRESHOLD must be between 0.0 and 1.0"))
	}

	return errors.Join(errs...)
}
