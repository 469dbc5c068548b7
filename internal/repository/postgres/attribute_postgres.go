package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"outfitted/internal/model"
	"outfitted/internal/repository"
)

// attributeTables maps a kind to its table, join table and join column.
// Identifiers are never taken from input.
type attributeTables struct {
	table      string
	joinTable  string
	joinColumn string
}

var tablesByKind = map[model.AttributeKind]attributeTables{
	model.KindTag:  {table: "tags", joinTable: "post_tags", joinColumn: "tag_id"},
	model.KindItem: {table: "items", joinTable: "post_items", joinColumn: "item_id"},
}

// AttributePostgres is a PostgreSQL implementation of repository.AttributeRepository
// bound to a single kind.
type AttributePostgres struct {
	db *sql.DB
	t  attributeTables
}

// NewAttributePostgres creates a repository for tags or items.
func NewAttributePostgres(db *sql.DB, kind model.AttributeKind) *AttributePostgres {
	t, ok := tablesByKind[kind]
	if !ok {
		panic(fmt.Sprintf("postgres: unknown attribute kind %q", kind))
	}
	return &AttributePostgres{db: db, t: t}
}

var _ repository.AttributeRepository = (*AttributePostgres)(nil)

// List returns the user's rows, newest name first.
func (r *AttributePostgres) List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Attribute, error) {
	q := `SELECT a.id, a.name, a.user_id FROM ` + r.t.table + ` a WHERE a.user_id = $1`
	if assignedOnly {
		q += ` AND EXISTS (SELECT 1 FROM ` + r.t.joinTable + ` j WHERE j.` + r.t.joinColumn + ` = a.id)`
	}
	q += ` ORDER BY a.name DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanAttributes(rows)
}

// Create inserts a new row and returns it.
func (r *AttributePostgres) Create(ctx context.Context, a *model.Attribute) (*model.Attribute, error) {
	q := `INSERT INTO ` + r.t.table + ` (name, user_id) VALUES ($1, $2) RETURNING id, name, user_id`
	var out model.Attribute
	if err := r.db.QueryRowContext(ctx, q, a.Name, a.UserID).Scan(&out.ID, &out.Name, &out.UserID); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindOwned returns the rows among ids that belong to userID, ordered by id.
func (r *AttributePostgres) FindOwned(ctx context.Context, userID int64, ids []int64) ([]model.Attribute, error) {
	if len(ids) == 0 {
		return []model.Attribute{}, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}

	q := `SELECT id, name, user_id FROM ` + r.t.table +
		` WHERE user_id = $1 AND id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanAttributes(rows)
}

func scanAttributes(rows *sql.Rows) ([]model.Attribute, error) {
	defer rows.Close()

	out := make([]model.Attribute, 0)
	for rows.Next() {
		var a model.Attribute
		if err := rows.Scan(&a.ID, &a.Name, &a.UserID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
