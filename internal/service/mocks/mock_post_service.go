package mocks

import (
	"context"
	"io"

	"outfitted/internal/model"
	"outfitted/internal/service"
	"outfitted/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockAttributeService struct {
	mock.Mock
	kind model.AttributeKind
}

var _ service.AttributeService = (*MockAttributeService)(nil)

// NewMockAttributeService returns a mock reporting kind from Kind.
func NewMockAttributeService(kind model.AttributeKind) *MockAttributeService {
	return &MockAttributeService{kind: kind}
}

func (m *MockAttributeService) Kind() model.AttributeKind { return m.kind }

func (m *MockAttributeService) List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Attribute, error) {
	args := m.Called(ctx, userID, assignedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attribute), args.Error(1)
}

func (m *MockAttributeService) Create(ctx context.Context, userID int64, name string) (*model.Attribute, error) {
	args := m.Called(ctx, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attribute), args.Error(1)
}

type MockPostService struct {
	mock.Mock
}

var _ service.PostService = (*MockPostService)(nil)

func (m *MockPostService) List(ctx context.Context, userID int64) ([]model.Post, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostService) Get(ctx context.Context, userID, id int64) (*model.PostDetail, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostDetail), args.Error(1)
}

func (m *MockPostService) Create(ctx context.Context, userID int64, in service.PostInput) (*model.Post, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostService) Update(ctx context.Context, userID, id int64, in service.PostInput) (*model.Post, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostService) Patch(ctx context.Context, userID, id int64, in service.PostPatch) (*model.Post, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostService) Delete(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockPostService) UploadImage(ctx context.Context, userID, id int64, r io.Reader, filename string) (*model.PostImage, error) {
	args := m.Called(ctx, userID, id, r, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostImage), args.Error(1)
}

func (m *MockPostService) Image(ctx context.Context, userID, id int64) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, storage.ObjectInfo{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}
