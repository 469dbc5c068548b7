package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"outfitted/internal/database"
	"outfitted/internal/model"
	"outfitted/internal/repository"
)

// PostPostgres is a PostgreSQL implementation of repository.PostRepository.
type PostPostgres struct {
	db *sql.DB
}

// NewPostPostgres creates a new PostPostgres repository.
func NewPostPostgres(db *sql.DB) *PostPostgres {
	return &PostPostgres{db: db}
}

var _ repository.PostRepository = (*PostPostgres)(nil)

// List returns the user's posts ordered by id descending.
func (r *PostPostgres) List(ctx context.Context, userID int64) ([]model.Post, error) {
	const q = `SELECT id, title, user_id, image FROM posts WHERE user_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	index := make(map[int64]int)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(posts)
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	for _, kind := range []model.AttributeKind{model.KindItem, model.KindTag} {
		t := tablesByKind[kind]
		q := `SELECT j.post_id, j.` + t.joinColumn + ` FROM ` + t.joinTable + ` j
			JOIN posts p ON p.id = j.post_id
			WHERE p.user_id = $1
			ORDER BY j.post_id, j.` + t.joinColumn
		pairs, err := r.relationPairs(ctx, q, userID)
		if err != nil {
			return nil, err
		}
		for _, pr := range pairs {
			i, ok := index[pr[0]]
			if !ok {
				continue
			}
			appendRelation(&posts[i], kind, pr[1])
		}
	}
	return posts, nil
}

// FindByID returns a post owned by userID with relation ids loaded.
func (r *PostPostgres) FindByID(ctx context.Context, userID, id int64) (*model.Post, error) {
	const q = `SELECT id, title, user_id, image FROM posts WHERE id = $1 AND user_id = $2`
	p, err := scanPost(r.db.QueryRowContext(ctx, q, id, userID))
	if err != nil {
		return nil, err
	}

	for _, kind := range []model.AttributeKind{model.KindItem, model.KindTag} {
		t := tablesByKind[kind]
		q := `SELECT post_id, ` + t.joinColumn + ` FROM ` + t.joinTable + ` WHERE post_id = $1 ORDER BY ` + t.joinColumn
		pairs, err := r.relationPairs(ctx, q, id)
		if err != nil {
			return nil, err
		}
		for _, pr := range pairs {
			appendRelation(p, kind, pr[1])
		}
	}
	return p, nil
}

// Attributes returns the expanded rows of one relation, ordered by name.
func (r *PostPostgres) Attributes(ctx context.Context, postID int64, kind model.AttributeKind) ([]model.Attribute, error) {
	t, ok := tablesByKind[kind]
	if !ok {
		return nil, fmt.Errorf("unknown attribute kind %q", kind)
	}
	q := `SELECT a.id, a.name, a.user_id FROM ` + t.table + ` a
		JOIN ` + t.joinTable + ` j ON j.` + t.joinColumn + ` = a.id
		WHERE j.post_id = $1
		ORDER BY a.name, a.id`
	rows, err := r.db.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, err
	}
	return scanAttributes(rows)
}

// Create inserts a post and its relations in one transaction.
func (r *PostPostgres) Create(ctx context.Context, p *model.Post) (*model.Post, error) {
	var out *model.Post
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = `INSERT INTO posts (user_id, title, image) VALUES ($1, $2, $3) RETURNING id, title, user_id, image`
		stored, err := scanPost(tx.QueryRowContext(ctx, q, p.UserID, p.Title, p.Image))
		if err != nil {
			return err
		}
		if err := insertRelations(ctx, tx, stored.ID, p.Items, p.Tags); err != nil {
			return err
		}
		stored.Items = normalizeIDs(p.Items)
		stored.Tags = normalizeIDs(p.Tags)
		out = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes the title and replaces both relation sets in one transaction.
func (r *PostPostgres) Update(ctx context.Context, p *model.Post) (*model.Post, error) {
	var out *model.Post
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = `UPDATE posts SET title = $3 WHERE id = $1 AND user_id = $2 RETURNING id, title, user_id, image`
		stored, err := scanPost(tx.QueryRowContext(ctx, q, p.ID, p.UserID, p.Title))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_items WHERE post_id = $1`, p.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, p.ID); err != nil {
			return err
		}
		if err := insertRelations(ctx, tx, p.ID, p.Items, p.Tags); err != nil {
			return err
		}
		stored.Items = normalizeIDs(p.Items)
		stored.Tags = normalizeIDs(p.Tags)
		out = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetImage stores the object key of the post image.
func (r *PostPostgres) SetImage(ctx context.Context, userID, id int64, key string) error {
	const q = `UPDATE posts SET image = $3 WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID, key)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a post; relations go with it through ON DELETE CASCADE.
func (r *PostPostgres) Delete(ctx context.Context, userID, id int64) error {
	const q = `DELETE FROM posts WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PostPostgres) relationPairs(ctx context.Context, q string, arg int64) ([][2]int64, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs [][2]int64
	for rows.Next() {
		var pr [2]int64
		if err := rows.Scan(&pr[0], &pr[1]); err != nil {
			return nil, err
		}
		pairs = append(pairs, pr)
	}
	return pairs, rows.Err()
}

// insertRelations attaches items and tags. A row deleted after the caller
// checked it surfaces as *repository.MissingRelationError.
func insertRelations(ctx context.Context, tx *sql.Tx, postID int64, items, tags []int64) error {
	for _, id := range normalizeIDs(items) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO post_items (post_id, item_id) VALUES ($1, $2)`, postID, id); err != nil {
			return relationError("items", id, err)
		}
	}
	for _, id := range normalizeIDs(tags) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, postID, id); err != nil {
			return relationError("tags", id, err)
		}
	}
	return nil
}

func relationError(field string, id int64, err error) error {
	if database.IsForeignKeyViolation(err) {
		return &repository.MissingRelationError{Field: field, ID: id}
	}
	return fmt.Errorf("attach %s %d: %w", field, id, err)
}

func scanPost(row rowScanner) (*model.Post, error) {
	var p model.Post
	var image sql.NullString
	if err := row.Scan(&p.ID, &p.Title, &p.UserID, &image); err != nil {
		return nil, err
	}
	if image.Valid {
		s := image.String
		p.Image = &s
	}
	p.Items = []int64{}
	p.Tags = []int64{}
	return &p, nil
}

func appendRelation(p *model.Post, kind model.AttributeKind, id int64) {
	switch kind {
	case model.KindItem:
		p.Items = append(p.Items, id)
	case model.KindTag:
		p.Tags = append(p.Tags, id)
	}
}

// normalizeIDs drops duplicates while keeping first-seen order.
func normalizeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
