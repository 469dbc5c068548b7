package repository

import (
	"context"
	"time"

	"outfitted/internal/model"
)

// UserRepository persists accounts.
type UserRepository interface {
	// Create inserts a user and returns the stored row. A taken email yields ErrDuplicate.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail matches the stored, already normalized email exactly.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Update writes names, password hash and permission flags.
	Update(ctx context.Context, u *model.User) (*model.User, error)

	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// TokenRepository persists API tokens, at most one per user.
type TokenRepository interface {
	FindByUserID(ctx context.Context, userID int64) (*model.Token, error)

	// Create stores a token. A second token for the same user yields ErrDuplicate.
	Create(ctx context.Context, t *model.Token) (*model.Token, error)

	// FindUserByKey returns the owner of key.
	FindUserByKey(ctx context.Context, key string) (*model.User, error)
}
