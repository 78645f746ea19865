package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*RunRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &RunRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestRecordRunInsertsAuditRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	run := &domain.BatchRun{
		ID:               "run-1",
		DocumentCount:    2,
		DocumentsSkipped: 1,
		QuestionCount:    3,
		Answers:          []string{"Decision: Approved, Amount: 100.00, Justification: x"},
		Duration:         1500 * time.Millisecond,
		CreatedAt:        time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO batch_runs").
		WithArgs("run-1", 2, 1, 3, sqlmock.AnyArg(), int64(1500), run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordRun(context.Background(), run); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordRunPropagatesInsertError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO batch_runs").
		WillReturnError(errors.New("connection reset"))

	err := repo.RecordRun(context.Background(), &domain.BatchRun{ID: "run-2"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaCommitsDDLUnderLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS batch_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
