package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/hrygo/tagtree/internal/profile"
	"github.com/hrygo/tagtree/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a connection to the PostgreSQL database specified by the
// profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, fmt.Errorf("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db with dsn %s: %w", profile.DSN, err)
	}

	driver := DB{db: pgDB, profile: profile}

	return &driver, nil
}

func (db *DB) GetDB() *sql.DB {
	return db.db
}

func (db *DB) Close() error {
	return db.db.Close()
}

var migrationStmts = []string{
	`CREATE TABLE IF NOT EXISTS tag_node (
		path TEXT NOT NULL PRIMARY KEY,
		parent_path TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tag_node_parent_path ON tag_node (parent_path)`,
	`CREATE TABLE IF NOT EXISTS association (
		record_key TEXT NOT NULL,
		tag_path TEXT NOT NULL,
		created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
		PRIMARY KEY (record_key, tag_path)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_association_tag_path ON association (tag_path)`,
	// text_pattern_ops lets the planner use the index for the LIKE
	// prefix queries regardless of the database collation.
	`CREATE INDEX IF NOT EXISTS idx_tag_node_path_pattern ON tag_node (path text_pattern_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_association_tag_path_pattern ON association (tag_path text_pattern_ops)`,
}

// Migrate applies the storage schema.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStmts {
		if _, err := db.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}

// escapeLike escapes LIKE metacharacters so a tag path prefix matches
// literally. Paired with an explicit ESCAPE clause in the queries.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func likePrefixPattern(prefix string) string {
	return escapeLike(prefix) + "%"
}
