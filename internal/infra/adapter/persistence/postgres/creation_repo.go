package postgres

import (
	"context"
	"fmt"
	"time"

	"digestly/internal/domain/entity"
	"digestly/internal/infra/db"
	"digestly/internal/observability/metrics"
	"digestly/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type CreationRepo struct{ db db.DBTX }

func NewCreationRepo(conn db.DBTX) repository.CreationRepository {
	return &CreationRepo{db: conn}
}

func (repo *CreationRepo) Create(ctx context.Context, c *entity.Creation) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	defer func() { metrics.RecordOperationDuration("creation_create", time.Since(start)) }()

	const query = `
INSERT INTO creations (user_id, prompt, content, type, publish, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	if err := repo.db.QueryRowContext(ctx, query,
		c.UserID, c.Prompt, c.Content, string(c.Type), c.Publish, c.CreatedAt,
	).Scan(&c.ID); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *CreationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Creation, error) {
	start := time.Now()
	defer func() { metrics.RecordOperationDuration("creation_list_by_user", time.Since(start)) }()

	const query = `
SELECT id, user_id, prompt, content, type, publish, created_at
FROM creations
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	creations, err := repo.list(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	return creations, nil
}

func (repo *CreationRepo) ListPublished(ctx context.Context, limit int) ([]*entity.Creation, error) {
	start := time.Now()
	defer func() { metrics.RecordOperationDuration("creation_list_published", time.Since(start)) }()

	const query = `
SELECT id, user_id, prompt, content, type, publish, created_at
FROM creations
WHERE publish = TRUE
ORDER BY created_at DESC, id DESC
LIMIT $1`
	creations, err := repo.list(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("ListPublished: %w", err)
	}
	return creations, nil
}

func (repo *CreationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Creation, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	creations := make([]*entity.Creation, 0, defaultListLimit)
	for rows.Next() {
		var c entity.Creation
		var typ string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Prompt, &c.Content, &typ, &c.Publish, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Type = entity.CreationType(typ)
		creations = append(creations, &c)
	}
	return creations, rows.Err()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
