package config

import (
	"errors"
	"fmt"

	pkgconfig "digestly/pkg/config"
)

// DigestConfig holds configuration for the summarization pipeline.
type DigestConfig struct {
	// ChunkSize is the chunk bound in characters. Default: 7000
	ChunkSize int

	// MapConcurrency caps concurrent map calls per summary. Default: 4
	MapConcurrency int

	// MaxInputChars rejects longer source texts. Default: 500000
	MaxInputChars int

	// PromptsFile is an optional YAML file with prompt overrides.
	// It is watched and reloaded on change.
	PromptsFile string
}

// LoadDigestConfig loads pipeline configuration from environment variables.
func LoadDigestConfig() (*DigestConfig, error) {
	config := &DigestConfig{
		ChunkSize:      pkgconfig.GetEnvInt("DIGEST_CHUNK_SIZE", 7000),
		MapConcurrency: pkgconfig.GetEnvInt("DIGEST_MAP_CONCURRENCY", 4),
		MaxInputChars:  pkgconfig.GetEnvInt("DIGEST_MAX_INPUT_CHARS", 500000),
		PromptsFile:    pkgconfig.GetEnvString("DIGEST_PROMPTS_FILE", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid digest configuration: %w", err)
	}
	return config, nil
}

// Validate checks configuration correctness.
func (c *DigestConfig) Validate() error {
	var errs []error
	if c.ChunkSize < 100 {
		errs = append(errs, fmt.Errorf("DIGEST_CHUNK_SIZE must be at least 100, got %d", c.ChunkSize))
	}
	if c.MapConcurrency < 1 || c.MapConcurrency > 32 {
		errs = append(errs, fmt.Errorf("DIGEST_MAP_CONCURRENCY must be between 1 and 32, got %d", c.MapConcurrency))
	}
	if c.MaxInputChars < 0 {
		errs = append(errs, errors.New("DIGEST_MAX_INPUT_CHARS cannot be negative"))
	}
	return errors.Join(errs...)
}
