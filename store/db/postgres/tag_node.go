package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/tagtree/store"
)

func (db *DB) CreateTagNode(ctx context.Context, create *store.TagNode) error {
	query := `
		INSERT INTO tag_node (path, parent_path, created_ts)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO NOTHING
	`
	_, err := db.db.ExecContext(ctx, query,
		create.Path,
		create.ParentPath,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create tag node: %w", err)
	}
	return nil
}

func (db *DB) ListTagNodes(ctx context.Context, find *store.FindTagNode) ([]*store.TagNode, error) {
	query := `
		SELECT path, parent_path, created_ts
		FROM tag_node
		WHERE 1=1
	`
	var args []interface{}
	argIndex := 1

	if find.Path != nil {
		query += fmt.Sprintf(" AND path = $%d", argIndex)
		args = append(args, *find.Path)
		argIndex++
	}
	if find.ParentPath != nil {
		query += fmt.Sprintf(" AND parent_path = $%d", argIndex)
		args = append(args, *find.ParentPath)
		argIndex++
	}
	if find.PathPrefix != nil {
		query += fmt.Sprintf(` AND path LIKE $%d ESCAPE '\'`, argIndex)
		args = append(args, likePrefixPattern(*find.PathPrefix))
		argIndex++
	}

	query += " ORDER BY path"

	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, *find.Limit)
		argIndex++
	}
	if find.Offset != nil {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, *find.Offset)
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*store.TagNode
	for rows.Next() {
		var node store.TagNode
		if err := rows.Scan(&node.Path, &node.ParentPath, &node.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan tag node: %w", err)
		}
		nodes = append(nodes, &node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tag nodes: %w", err)
	}
	return nodes, nil
}

func (db *DB) DeleteTagNodes(ctx context.Context, delete *store.DeleteTagNode) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pattern := likePrefixPattern(delete.PathPrefix)

	// Associations referencing the subtree go first so a failure cannot
	// leave links pointing at removed nodes.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM association WHERE tag_path = $1 OR tag_path LIKE $2 ESCAPE '\'`,
		delete.Path, pattern,
	); err != nil {
		return fmt.Errorf("failed to delete associations of tag subtree: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tag_node WHERE path = $1 OR path LIKE $2 ESCAPE '\'`,
		delete.Path, pattern,
	); err != nil {
		return fmt.Errorf("failed to delete tag subtree: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
