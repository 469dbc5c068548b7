package repository

import (
	"context"

	"outfitted/internal/model"
)

// AttributeRepository persists either tags or items; one instance serves one kind.
type AttributeRepository interface {
	// List returns the user's rows ordered by name descending. With assignedOnly
	// set, only rows attached to at least one post are returned, once each.
	List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Attribute, error)

	Create(ctx context.Context, a *model.Attribute) (*model.Attribute, error)

	// FindOwned returns the subset of ids that exist and belong to userID.
	FindOwned(ctx context.Context, userID int64, ids []int64) ([]model.Attribute, error)
}
