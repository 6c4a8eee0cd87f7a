package repository

import (
	"context"

	"digestly/internal/domain/entity"
)

// CreationRepository stores the summaries and answers produced for users.
type CreationRepository interface {
	Create(ctx context.Context, creation *entity.Creation) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Creation, error)
	ListPublished(ctx context.Context, limit int) ([]*entity.Creation, error)
}
