package repository

import (
	"context"

	"outfitted/internal/model"
)

// PostRepository persists posts and their item/tag relations.
// Every read and write is scoped to the owning user.
type PostRepository interface {
	// List returns the user's posts ordered by id descending, relations included as ids.
	List(ctx context.Context, userID int64) ([]model.Post, error)

	FindByID(ctx context.Context, userID, id int64) (*model.Post, error)

	// Attributes returns the rows of the given kind attached to a post, ordered by name.
	Attributes(ctx context.Context, postID int64, kind model.AttributeKind) ([]model.Attribute, error)

	// Create inserts the post and its relations atomically.
	Create(ctx context.Context, p *model.Post) (*model.Post, error)

	// Update writes the title and replaces both relation sets atomically.
	Update(ctx context.Context, p *model.Post) (*model.Post, error)

	SetImage(ctx context.Context, userID, id int64, key string) error

	Delete(ctx context.Context, userID, id int64) error
}
