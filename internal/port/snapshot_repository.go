package port

import (
	"context"

	"docwatch/internal/domain"
)

// SnapshotRepository persists final run results.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *domain.Snapshot) error
	// GetLatest returns domain.ErrRunNotFound when nothing was stored for objectKey.
	GetLatest(ctx context.Context, objectKey string) (*domain.Snapshot, error)
	ListByObjectKey(ctx context.Context, objectKey string, limit int) ([]domain.Snapshot, error)
}
