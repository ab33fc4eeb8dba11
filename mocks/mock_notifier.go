package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docwatch/internal/port"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendRunFinished(ctx context.Context, n port.RunNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
