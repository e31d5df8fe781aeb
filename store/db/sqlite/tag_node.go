package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/tagtree/store"
)

func (d *DB) CreateTagNode(ctx context.Context, create *store.TagNode) error {
	stmt := `
		INSERT INTO tag_node (path, parent_path, created_ts)
		VALUES (?, ?, ?)
		ON CONFLICT (path) DO NOTHING
	`
	_, err := d.db.ExecContext(ctx, stmt,
		create.Path,
		create.ParentPath,
		time.Now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create tag node")
	}
	return nil
}

func (d *DB) ListTagNodes(ctx context.Context, find *store.FindTagNode) ([]*store.TagNode, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.Path != nil {
		where, args = append(where, "path = ?"), append(args, *find.Path)
	}
	if find.ParentPath != nil {
		where, args = append(where, "parent_path = ?"), append(args, *find.ParentPath)
	}
	if find.PathPrefix != nil {
		where, args = append(where, `path LIKE ? ESCAPE '\'`), append(args, likePrefixPattern(*find.PathPrefix))
	}

	query := `SELECT path, parent_path, created_ts
		FROM tag_node
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY path`

	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}
	if find.Offset != nil {
		query += " OFFSET ?"
		args = append(args, *find.Offset)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tag nodes")
	}
	defer rows.Close()

	var nodes []*store.TagNode
	for rows.Next() {
		var node store.TagNode
		if err := rows.Scan(&node.Path, &node.ParentPath, &node.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag node")
		}
		nodes = append(nodes, &node)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}

func (d *DB) DeleteTagNodes(ctx context.Context, delete *store.DeleteTagNode) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	pattern := likePrefixPattern(delete.PathPrefix)

	// Associations referencing the subtree go first so a failure cannot
	// leave links pointing at removed nodes.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM association WHERE tag_path = ? OR tag_path LIKE ? ESCAPE '\'`,
		delete.Path, pattern,
	); err != nil {
		return errors.Wrap(err, "failed to delete associations of tag subtree")
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tag_node WHERE path = ? OR path LIKE ? ESCAPE '\'`,
		delete.Path, pattern,
	); err != nil {
		return errors.Wrap(err, "failed to delete tag subtree")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}
