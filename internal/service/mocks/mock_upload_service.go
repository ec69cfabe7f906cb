package mocks

import (
	"context"

	"puttr/internal/model"
	"puttr/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) IssueToken(ctx context.Context) string {
	args := m.Called(ctx)
	return args.String(0)
}

func (m *MockUploadService) Upload(ctx context.Context, tok string, content []byte, contentType string) (*model.Upload, error) {
	args := m.Called(ctx, tok, content, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Upload), args.Error(1)
}

func (m *MockUploadService) List(ctx context.Context, limit, offset int) (*service.UploadListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadListResult), args.Error(1)
}

func (m *MockUploadService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
