package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwatch/internal/domain"
	"docwatch/internal/port"
	"docwatch/internal/repository/postgres"
)

var snapshotCols = []string{"id", "object_key", "status", "doc_type", "attempts", "envelope", "analysis", "issues", "created_at"}

func newRepoWithMock(t *testing.T) (port.SnapshotRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewSnapshotRepo(sqlx.NewDb(db, "pgx")), mock
}

func TestSnapshotRepo_SaveAssignsIDAndTimestamp(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("INSERT INTO run_snapshots").
		WithArgs(sqlmock.AnyArg(), "uploads/a.pdf", domain.RunStatusOK, "bank_statement", 3,
			[]byte(`{"status":"done"}`), nil, []byte(`[]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	snap := &domain.Snapshot{
		ObjectKey: "uploads/a.pdf",
		Status:    domain.RunStatusOK,
		DocType:   "bank_statement",
		Attempts:  3,
		Envelope:  json.RawMessage(`{"status":"done"}`),
		Issues:    json.RawMessage(`[]`),
	}
	require.NoError(t, repo.Save(context.Background(), snap))

	assert.NotEqual(t, uuid.Nil, snap.ID)
	assert.False(t, snap.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_GetLatest(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM run_snapshots").
		WithArgs("uploads/a.pdf").
		WillReturnRows(sqlmock.NewRows(snapshotCols).
			AddRow(id, "uploads/a.pdf", "warning", "payslip", 7, []byte(`{}`), []byte(`{"docType":"payslip"}`), []byte(`[]`), created))

	snap, err := repo.GetLatest(context.Background(), "uploads/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, domain.RunStatusWarning, snap.Status)
	assert.Equal(t, 7, snap.Attempts)
	assert.JSONEq(t, `{"docType":"payslip"}`, string(snap.Analysis))
	assert.Equal(t, created, snap.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_GetLatestNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM run_snapshots").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLatest(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_ListDefaultsLimit(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM run_snapshots").
		WithArgs("uploads/a.pdf", 20).
		WillReturnRows(sqlmock.NewRows(snapshotCols).
			AddRow(uuid.New(), "uploads/a.pdf", "ok", "", 1, []byte(`{}`), nil, []byte(`[]`), time.Now()).
			AddRow(uuid.New(), "uploads/a.pdf", "error", "", 2, []byte(`{}`), nil, []byte(`[]`), time.Now()))

	snaps, err := repo.ListByObjectKey(context.Background(), "uploads/a.pdf", 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
	assert.Equal(t, domain.RunStatusError, snaps[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
