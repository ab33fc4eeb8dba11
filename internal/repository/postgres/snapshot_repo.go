package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docwatch/internal/domain"
)

const snapshotColumns = `id, object_key, status, doc_type, attempts, envelope, analysis, issues, created_at`

type snapshotRepo struct {
	db *sqlx.DB
}

// NewSnapshotRepo creates a new PostgreSQL-backed SnapshotRepository.
func NewSnapshotRepo(db *sqlx.DB) *snapshotRepo {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Save(ctx context.Context, snap *domain.Snapshot) error {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO run_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		snap.ID, snap.ObjectKey, snap.Status, snap.DocType, snap.Attempts,
		jsonOrNull(snap.Envelope), jsonOrNull(snap.Analysis), jsonOrNull(snap.Issues),
		snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("snapshotRepo.Save: %w", err)
	}
	return nil
}

func (r *snapshotRepo) GetLatest(ctx context.Context, objectKey string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := r.db.GetContext(ctx, &snap,
		`SELECT `+snapshotColumns+` FROM run_snapshots
		WHERE object_key = $1 ORDER BY created_at DESC LIMIT 1`, objectKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("snapshotRepo.GetLatest: %w", err)
	}
	return &snap, nil
}

func (r *snapshotRepo) ListByObjectKey(ctx context.Context, objectKey string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	var snaps []domain.Snapshot
	err := r.db.SelectContext(ctx, &snaps,
		`SELECT `+snapshotColumns+` FROM run_snapshots
		WHERE object_key = $1 ORDER BY created_at DESC LIMIT $2`, objectKey, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshotRepo.ListByObjectKey: %w", err)
	}
	return snaps, nil
}

// jsonOrNull keeps empty payloads out of jsonb columns.
func jsonOrNull(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
