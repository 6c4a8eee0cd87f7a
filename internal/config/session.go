package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	pkgconfig "digestly/pkg/config"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// SessionConfig holds configuration for the per-caller session context store.
type SessionConfig struct {
	// Backend is memory or redis. Default: memory
	Backend string

	// TTL expires a context after it was last written. Zero keeps it forever.
	TTL time.Duration

	// MaxEntries caps the memory backend; the oldest context is evicted first.
	// Zero means unbounded.
	MaxEntries int

	// SweepSchedule is the cron spec for removing expired memory contexts.
	// Default: @every 10m
	SweepSchedule string

	// RedisAddr is the redis address. Default: localhost:6379
	RedisAddr string

	// RedisPassword is optional.
	RedisPassword string

	// RedisDB selects the redis logical database. Default: 0
	RedisDB int
}

// LoadSessionConfig loads session configuration from environment variables.
func LoadSessionConfig() (*SessionConfig, error) {
	config := &SessionConfig{
		Backend:       pkgconfig.GetEnvString("SESSION_BACKEND", SessionBackendMemory),
		TTL:           pkgconfig.GetEnvDuration("SESSION_TTL", 0),
		MaxEntries:    pkgconfig.GetEnvInt("SESSION_MAX_ENTRIES", 0),
		SweepSchedule: pkgconfig.GetEnvString("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		RedisAddr:     pkgconfig.GetEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: pkgconfig.GetEnvString("REDIS_PASSWORD", ""),
		RedisDB:       pkgconfig.GetEnvInt("REDIS_DB", 0),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}
	return config, nil
}

// Validate checks configuration correctness.
func (c *SessionConfig) Validate() error {
	var errs []error
	switch c.Backend {
	case SessionBackendMemory:
		if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
			errs = append(errs, fmt.Errorf("SESSION_SWEEP_SCHEDULE: %w", err))
		}
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR cannot be empty for redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", c.Backend))
	}
	if err := pkgconfig.ValidateNonNegativeDuration(c.TTL); err != nil {
		errs = append(errs, fmt.Errorf("SESSION_TTL: %w", err))
	}
	if c.MaxEntries < 0 {
		errs = append(errs, errors.New("SESSION_MAX_ENTRIES cannot be negative"))
	}
	return errors.Join(errs...)
}
