package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"outfitted/internal/model"
	"outfitted/internal/repository"
)

// AttributeService manages the tags or items of the authenticated user.
type AttributeService interface {
	Kind() model.AttributeKind

	// List returns the caller's rows ordered by name descending.
	List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Attribute, error)

	// Create stores a new row owned by userID.
	Create(ctx context.Context, userID int64, name string) (*model.Attribute, error)
}

type attributeService struct {
	kind model.AttributeKind
	repo repository.AttributeRepository
}

// NewAttributeService constructs a service for one attribute kind.
func NewAttributeService(kind model.AttributeKind, repo repository.AttributeRepository) AttributeService {
	return &attributeService{kind: kind, repo: repo}
}

func (s *attributeService) Kind() model.AttributeKind { return s.kind }

func (s *attributeService) List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Attribute, error) {
	return s.repo.List(ctx, userID, assignedOnly)
}

func (s *attributeService) Create(ctx context.Context, userID int64, name string) (*model.Attribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "this field may not be blank")
	}
	if err := rejectNUL("name", name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(name) > model.AttributeNameMaxLen {
		return nil, invalid("name", "ensure this field has no more than %d characters", model.AttributeNameMaxLen)
	}

	a, err := s.repo.Create(ctx, &model.Attribute{Name: name, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.kind, err)
	}
	return a, nil
}
