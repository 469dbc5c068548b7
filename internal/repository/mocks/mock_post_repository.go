package mocks

import (
	"context"

	"outfitted/internal/model"
	"outfitted/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockAttributeRepository struct {
	mock.Mock
}

var _ repository.AttributeRepository = (*MockAttributeRepository)(nil)

func (m *MockAttributeRepository) List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Attribute, error) {
	args := m.Called(ctx, userID, assignedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) Create(ctx context.Context, a *model.Attribute) (*model.Attribute, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) FindOwned(ctx context.Context, userID int64, ids []int64) ([]model.Attribute, error) {
	args := m.Called(ctx, userID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attribute), args.Error(1)
}

type MockPostRepository struct {
	mock.Mock
}

var _ repository.PostRepository = (*MockPostRepository)(nil)

func (m *MockPostRepository) List(ctx context.Context, userID int64) ([]model.Post, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostRepository) FindByID(ctx context.Context, userID, id int64) (*model.Post, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) Attributes(ctx context.Context, postID int64, kind model.AttributeKind) ([]model.Attribute, error) {
	args := m.Called(ctx, postID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attribute), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, p *model.Post) (*model.Post, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, p *model.Post) (*model.Post, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) SetImage(ctx context.Context, userID, id int64, key string) error {
	args := m.Called(ctx, userID, id, key)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
