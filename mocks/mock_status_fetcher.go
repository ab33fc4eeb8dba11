package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docwatch/internal/domain"
)

// MockStatusFetcher is a mock implementation of poller.Fetcher.
type MockStatusFetcher struct {
	mock.Mock
}

func (m *MockStatusFetcher) FetchStatus(ctx context.Context, objectKey string) (domain.Envelope, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Envelope), args.Error(1)
}
