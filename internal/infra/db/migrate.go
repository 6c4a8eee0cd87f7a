package db

import (
	"context"
	"fmt"
)

var schemas = map[string][]string{
	DriverPgx: {
		`CREATE TABLE IF NOT EXISTS creations (
    id         BIGSERIAL PRIMARY KEY,
    user_id    TEXT NOT NULL,
    prompt     TEXT NOT NULL DEFAULT '',
    content    TEXT NOT NULL,
    type       VARCHAR(16) NOT NULL CHECK (type IN ('summary', 'answer')),
    publish    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_creations_user_created ON creations(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_creations_published ON creations(created_at DESC) WHERE publish = TRUE`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS creations (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    TEXT NOT NULL,
    prompt     TEXT NOT NULL DEFAULT '',
    content    TEXT NOT NULL,
    type       TEXT NOT NULL CHECK (type IN ('summary', 'answer')),
    publish    INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		`CREATE INDEX IF NOT EXISTS idx_creations_user_created ON creations(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_creations_published ON creations(publish, created_at DESC)`,
	},
}

// MigrateUp creates the creations table and its indexes if they are missing.
func MigrateUp(ctx context.Context, db DBTX, driver string) error {
	stmts, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
