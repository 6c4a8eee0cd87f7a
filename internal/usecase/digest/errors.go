// Package digest implements the chunked summarization pipeline and the
// follow-up question answering that reuses the last summarized text of
// each caller.
package digest

import (
	"errors"
	"fmt"
)

// Sentinel errors for digest use case operations.
var (
	// ErrEmptyInput is returned when the source text is empty or whitespace only.
	// No completion call is issued in that case.
	ErrEmptyInput = errors.New("source text cannot be empty")

	// ErrInputTooLarge is returned when the source text exceeds the configured
	// character limit.
	ErrInputTooLarge = errors.New("source text is too long")

	// ErrEmptyQuestion is returned when a follow-up question is empty or whitespace only.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrNoContext is returned by Ask when nothing has been summarized for the caller yet.
	ErrNoContext = errors.New("no summarized text found for caller")

	// ErrCompletionUnavailable marks completion failures caused by an open
	// circuit breaker rather than by the call itself.
	ErrCompletionUnavailable = errors.New("completion service temporarily unavailable")
)

// Stage names the pipeline step a completion call belonged to.
type Stage string

const (
	StageMap     Stage = "map"
	StageCombine Stage = "combine"
	StageAnswer  Stage = "answer"
)

// CompletionError wraps a failure of the completion service.
// Chunk is the zero-based chunk index for StageMap and -1 otherwise.
type CompletionError struct {
	Stage Stage
	Chunk int
	Err   error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	if e.Stage == StageMap {
		return fmt.Sprintf("completion failed at %s step (chunk %d): %v", e.Stage, e.Chunk+1, e.Err)
	}
	return fmt.Sprintf("completion failed at %s step: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying completion error.
func (e *CompletionError) Unwrap() error {
	return e.Err
}
