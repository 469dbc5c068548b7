package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last step; its presence means the schema is complete.
const sentinelTable = "public.post_tags"

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            BIGSERIAL    PRIMARY KEY,
  email         VARCHAR(255) NOT NULL UNIQUE,
  first_name    VARCHAR(255) NOT NULL,
  surname       VARCHAR(255) NOT NULL,
  password_hash TEXT         NOT NULL,
  is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
  is_staff      BOOLEAN      NOT NULL DEFAULT FALSE,
  is_superuser  BOOLEAN      NOT NULL DEFAULT FALSE,
  last_login    TIMESTAMPTZ  NULL,
  created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_auth_tokens",
		SQL: `CREATE TABLE IF NOT EXISTS auth_tokens (
  key        CHAR(40)    PRIMARY KEY,
  user_id    BIGINT      NOT NULL UNIQUE REFERENCES users (id) ON DELETE CASCADE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_tags",
		SQL: `CREATE TABLE IF NOT EXISTS tags (
  id      BIGSERIAL    PRIMARY KEY,
  name    VARCHAR(255) NOT NULL,
  user_id BIGINT       NOT NULL REFERENCES users (id) ON DELETE CASCADE
);`,
	},
	{
		Name: "create_index_tags_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_tags_user_id ON tags (user_id);`,
	},
	{
		Name: "create_table_items",
		SQL: `CREATE TABLE IF NOT EXISTS items (
  id      BIGSERIAL    PRIMARY KEY,
  name    VARCHAR(255) NOT NULL,
  user_id BIGINT       NOT NULL REFERENCES users (id) ON DELETE CASCADE
);`,
	},
	{
		Name: "create_index_items_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_items_user_id ON items (user_id);`,
	},
	{
		Name: "create_table_posts",
		SQL: `CREATE TABLE IF NOT EXISTS posts (
  id      BIGSERIAL    PRIMARY KEY,
  user_id BIGINT       NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  title   VARCHAR(255) NOT NULL DEFAULT '',
  image   TEXT         NULL
);`,
	},
	{
		Name: "create_index_posts_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id);`,
	},
	{
		Name: "create_table_post_items",
		SQL: `CREATE TABLE IF NOT EXISTS post_items (
  post_id BIGINT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
  item_id BIGINT NOT NULL REFERENCES items (id) ON DELETE CASCADE,
  PRIMARY KEY (post_id, item_id)
);`,
	},
	{
		Name: "create_table_post_tags",
		SQL: `CREATE TABLE IF NOT EXISTS post_tags (
  post_id BIGINT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
  tag_id  BIGINT NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
  PRIMARY KEY (post_id, tag_id)
);`,
	},
}

// EnsureMigrated checks for the sentinel table and runs every step when it is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	query := fmt.Sprintf("SELECT to_regclass('%s') IS NOT NULL", sentinelTable)
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("reason", "schema already exists"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"), zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
