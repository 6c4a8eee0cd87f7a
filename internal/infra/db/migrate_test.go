package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp(t *testing.T) {
	for _, driver := range []string{DriverPgx, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			mock.ExpectExec("CREATE TABLE IF NOT EXISTS creations").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_creations_user_created").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_creations_published").
				WillReturnResult(sqlmock.NewResult(0, 0))

			require.NoError(t, MigrateUp(context.Background(), db, driver))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrateUp_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS creations").
		WillReturnError(errors.New("permission denied"))

	err = MigrateUp(context.Background(), db, DriverPgx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_UnsupportedDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = MigrateUp(context.Background(), db, "mysql")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
