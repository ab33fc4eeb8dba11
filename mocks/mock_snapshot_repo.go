package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docwatch/internal/domain"
)

// MockSnapshotRepo is a mock implementation of port.SnapshotRepository.
type MockSnapshotRepo struct {
	mock.Mock
}

func (m *MockSnapshotRepo) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepo) GetLatest(ctx context.Context, objectKey string) (*domain.Snapshot, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepo) ListByObjectKey(ctx context.Context, objectKey string, limit int) ([]domain.Snapshot, error) {
	args := m.Called(ctx, objectKey, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Snapshot), args.Error(1)
}
