package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "digestly/pkg/config"
)

// Database drivers.
const (
	DriverPgx    = "pgx"
	DriverSQLite = "sqlite3"
)

// ServerConfig holds configuration for the HTTP server and its stores.
type ServerConfig struct {
	// Port is the HTTP listen port. Default: 8080
	Port int

	// JWTSecret signs and verifies caller tokens (HS256). Required.
	JWTSecret string

	// MaxBodyBytes caps request bodies. Default: 4 MiB
	MaxBodyBytes int64

	// RequestTimeout bounds one API request, including every completion call
	// it makes. Default: 5m
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 15s
	ShutdownTimeout time.Duration

	// TraceSampleRatio is the share of new traces sampled. Default: 1.0
	TraceSampleRatio float64

	// Version is reported by the health endpoint. Default: dev
	Version string

	// DatabaseDriver is pgx or sqlite3. Default: pgx
	DatabaseDriver string

	// DatabaseURL enables the creations log. Empty disables it.
	DatabaseURL string
}

// LoadServerConfig loads server configuration from environment variables.
func LoadServerConfig() (*ServerConfig, error) {
	config := &ServerConfig{
		Port:             pkgconfig.GetEnvInt("PORT", 8080),
		JWTSecret:        pkgconfig.GetEnvString("JWT_SECRET", ""),
		MaxBodyBytes:     int64(pkgconfig.GetEnvInt("MAX_BODY_BYTES", 4<<20)),
		RequestTimeout:   pkgconfig.GetEnvDuration("REQUEST_TIMEOUT", 5*time.Minute),
		ShutdownTimeout:  pkgconfig.GetEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		TraceSampleRatio: pkgconfig.GetEnvFloat("TRACE_SAMPLE_RATIO", 1.0),
		Version:          pkgconfig.GetEnvString("VERSION", "dev"),
		DatabaseDriver:   pkgconfig.GetEnvString("DATABASE_DRIVER", DriverPgx),
		DatabaseURL:      pkgconfig.GetEnvString("DATABASE_URL", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	return config, nil
}

// Validate checks configuration correctness.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if err := pkgconfig.ValidatePositiveDuration(c.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1, got %v", c.TraceSampleRatio))
	}
	if err := pkgconfig.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
	}
	switch c.DatabaseDriver {
	case DriverPgx, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be pgx or sqlite3, got %q", c.DatabaseDriver))
	}
	return errors.Join(errs...)
}
