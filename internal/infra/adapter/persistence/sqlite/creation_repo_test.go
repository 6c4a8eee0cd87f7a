package sqlite_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"digestly/internal/domain/entity"
	"digestly/internal/infra/adapter/persistence/sqlite"
)

func TestCreationRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := &entity.Creation{UserID: "u", Prompt: "q", Content: "a", Type: entity.CreationAnswer, Publish: true, CreatedAt: createdAt}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO creations")).
		WithArgs("u", "q", "a", "answer", true, createdAt).
		WillReturnResult(sqlmock.NewResult(7, 1))

	if err := sqlite.NewCreationRepo(db).Create(context.Background(), c); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if c.ID != 7 {
		t.Fatalf("ID = %d, want 7", c.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestCreationRepo_Create_ExecError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO creations").WillReturnError(errors.New("database is locked"))

	err := sqlite.NewCreationRepo(db).Create(context.Background(),
		&entity.Creation{UserID: "u", Content: "a", Type: entity.CreationSummary})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCreationRepo_ListByUser(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	at := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	want := []*entity.Creation{{ID: 3, UserID: "u", Prompt: "p", Content: "c", Type: entity.CreationSummary, CreatedAt: at}}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ?")).
		WithArgs("u", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "prompt", "content", "type", "publish", "created_at"}).
			AddRow(int64(3), "u", "p", "c", "summary", false, at))

	got, err := sqlite.NewCreationRepo(db).ListByUser(context.Background(), "u", 0)
	if err != nil {
		t.Fatalf("ListByUser err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListByUser mismatch (-want +got):\n%s", diff)
	}
}

func TestCreationRepo_ListPublished(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE publish = 1")).
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "prompt", "content", "type", "publish", "created_at"}))

	got, err := sqlite.NewCreationRepo(db).ListPublished(context.Background(), 500)
	if err != nil {
		t.Fatalf("ListPublished err=%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
