package postgres

import (
	"context"
	"database/sql"

	"outfitted/internal/database"
	"outfitted/internal/model"
	"outfitted/internal/repository"
)

// TokenPostgres is a PostgreSQL implementation of repository.TokenRepository.
type TokenPostgres struct {
	db *sql.DB
}

// NewTokenPostgres creates a new TokenPostgres repository.
func NewTokenPostgres(db *sql.DB) *TokenPostgres {
	return &TokenPostgres{db: db}
}

var _ repository.TokenRepository = (*TokenPostgres)(nil)

func (r *TokenPostgres) FindByUserID(ctx context.Context, userID int64) (*model.Token, error) {
	const q = `SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`
	var t model.Token
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&t.Key, &t.UserID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenPostgres) Create(ctx context.Context, t *model.Token) (*model.Token, error) {
	const q = `
		INSERT INTO auth_tokens (key, user_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING key, user_id, created_at
	`
	var out model.Token
	if err := r.db.QueryRowContext(ctx, q, t.Key, t.UserID, t.CreatedAt).
		Scan(&out.Key, &out.UserID, &out.CreatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return &out, nil
}

func (r *TokenPostgres) FindUserByKey(ctx context.Context, key string) (*model.User, error) {
	const q = `
		SELECT u.id, u.email, u.first_name, u.surname, u.password_hash, u.is_active, u.is_staff, u.is_superuser, u.last_login, u.created_at
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.key = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, q, key))
}
