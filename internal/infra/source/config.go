package source

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "digestly/pkg/config"
)

const defaultUserAgent = "DigestlyBot/1.0"

// Config controls how source pages are downloaded.
type Config struct {
	// Timeout bounds a single download attempt. Default: 15s
	Timeout time.Duration

	// MaxBodySize is enforced while reading, not from Content-Length. Default: 10MB
	MaxBodySize int64

	// MaxRedirects caps redirects; every target is validated again. Default: 5
	MaxRedirects int

	// DenyPrivateIPs rejects hosts resolving to internal addresses.
	// Only tests turn this off. Default: true
	DenyPrivateIPs bool

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        15 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      defaultUserAgent,
	}
}

// Validate checks limits are within sane bounds.
func (c *Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", c.Timeout))
	}
	const minBody, maxBody = int64(1024), int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBody || c.MaxBodySize > maxBody {
		errs = append(errs, fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBody, maxBody, c.MaxBodySize))
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		errs = append(errs, fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("user agent cannot be empty"))
	}
	return errors.Join(errs...)
}

// LoadConfigFromEnv reads SOURCE_FETCH_* variables on top of DefaultConfig.
func LoadConfigFromEnv() (Config, error) {
	def := DefaultConfig()
	cfg := Config{
		Timeout:        pkgconfig.GetEnvDuration("SOURCE_FETCH_TIMEOUT", def.Timeout),
		MaxBodySize:    int64(pkgconfig.GetEnvInt("SOURCE_FETCH_MAX_BODY_SIZE", int(def.MaxBodySize))),
		MaxRedirects:   pkgconfig.GetEnvInt("SOURCE_FETCH_MAX_REDIRECTS", def.MaxRedirects),
		DenyPrivateIPs: pkgconfig.GetEnvBool("SOURCE_FETCH_DENY_PRIVATE_IPS", def.DenyPrivateIPs),
		UserAgent:      pkgconfig.GetEnvString("SOURCE_FETCH_USER_AGENT", def.UserAgent),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("source fetch configuration validation failed: %w", err)
	}
	return cfg, nil
}
