// Package promptfile loads prompt overrides from YAML and keeps a
// digest.PromptStore in sync with the file while it changes.
package promptfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"digestly/internal/usecase/digest"
)

// Load reads the YAML file at path and applies it on top of the default
// prompts. Unknown keys are rejected so typos do not go unnoticed.
// Fields left out of the file keep their default values.
func Load(path string) (digest.PromptSet, error) {
	// #nosec G304 -- path comes from DIGEST_PROMPTS_FILE, set by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return digest.PromptSet{}, fmt.Errorf("read prompts file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML overrides and merges them onto digest.DefaultPrompts.
func Parse(data []byte) (digest.PromptSet, error) {
	var override digest.PromptSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&override); err != nil && !errors.Is(err, io.EOF) {
		return digest.PromptSet{}, fmt.Errorf("parse prompts file: %w", err)
	}

	merged := digest.DefaultPrompts().Merge(override)
	if err := merged.Validate(); err != nil {
		return digest.PromptSet{}, fmt.Errorf("prompts file validation failed: %w", err)
	}
	return merged, nil
}
