package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docwatch/internal/service"
)

// MockSourceService is a mock implementation of service.SourceService.
type MockSourceService struct {
	mock.Mock
}

func (m *MockSourceService) Upload(ctx context.Context, input service.SourceUploadInput) (*service.UploadedSource, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadedSource), args.Error(1)
}
