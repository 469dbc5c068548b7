package postgres

import (
	"context"
	"database/sql"
	"time"

	"outfitted/internal/database"
	"outfitted/internal/model"
	"outfitted/internal/repository"
)

const userColumns = `id, email, first_name, surname, password_hash, is_active, is_staff, is_superuser, last_login, created_at`

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var lastLogin sql.NullTime
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.Surname,
		&u.PasswordHash,
		&u.IsActive,
		&u.IsStaff,
		&u.IsSuperuser,
		&lastLogin,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (email, first_name, surname, password_hash, is_active, is_staff, is_superuser, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.Email,
		u.FirstName,
		u.Surname,
		u.PasswordHash,
		u.IsActive,
		u.IsStaff,
		u.IsSuperuser,
		u.CreatedAt,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single user by primary key.
func (r *UserPostgres) FindByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByEmail fetches a single user by normalized email.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// Update writes the mutable profile and permission columns.
func (r *UserPostgres) Update(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		UPDATE users
		SET first_name = $2, surname = $3, password_hash = $4, is_active = $5, is_staff = $6, is_superuser = $7
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q,
		u.ID,
		u.FirstName,
		u.Surname,
		u.PasswordHash,
		u.IsActive,
		u.IsStaff,
		u.IsSuperuser,
	))
}

// TouchLastLogin records a successful login.
func (r *UserPostgres) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE users SET last_login = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}
