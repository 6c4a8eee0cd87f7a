package completion

import (
	"context"

	"digestly/internal/usecase/digest"
)

// Backend is a single completion provider without any resilience around it.
// Errors carrying an HTTP status are returned as *retry.HTTPError.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req digest.CompletionRequest) (string, error)
}
