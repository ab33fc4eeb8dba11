package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docwatch/internal/classifier"
	"docwatch/internal/domain"
	"docwatch/internal/service"
)

// MockRunService is a mock implementation of service.RunService.
type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) Start(ctx context.Context, input service.StartRunInput) (*service.RunView, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunView), args.Error(1)
}

func (m *MockRunService) Get(ctx context.Context, objectKey string) (*service.RunView, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunView), args.Error(1)
}

func (m *MockRunService) Wait(ctx context.Context, objectKey string) (*service.RunView, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunView), args.Error(1)
}

func (m *MockRunService) Cancel(objectKey string) error {
	args := m.Called(objectKey)
	return args.Error(0)
}

func (m *MockRunService) Evaluate(env domain.Envelope) *classifier.Evaluation {
	args := m.Called(env)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*classifier.Evaluation)
}

func (m *MockRunService) Report(ctx context.Context, objectKey string, format domain.ReportFormat) (*service.Artifact, error) {
	args := m.Called(ctx, objectKey, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Artifact), args.Error(1)
}

func (m *MockRunService) Links(ctx context.Context, objectKey string) (*service.LinksView, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LinksView), args.Error(1)
}

func (m *MockRunService) History(ctx context.Context, objectKey string, limit int) ([]service.SnapshotView, error) {
	args := m.Called(ctx, objectKey, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SnapshotView), args.Error(1)
}

func (m *MockRunService) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
