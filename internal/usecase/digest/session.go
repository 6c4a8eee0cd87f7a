package digest

import (
	"context"

	"digestly/internal/domain/entity"
)

// SessionStore keeps the most recently summarized text of each caller.
// Put overwrites any previous value for the same caller.
type SessionStore interface {
	Put(ctx context.Context, callerID string, src entity.SourceText) error
	// Get returns false when nothing is stored for callerID.
	Get(ctx context.Context, callerID string) (entity.SourceText, bool, error)
	// Delete removes the caller's context. Deleting a missing context is not an error.
	Delete(ctx context.Context, callerID string) error
}
