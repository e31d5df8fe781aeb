package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/tagtree/store"
)

func (d *DB) UpsertAssociation(ctx context.Context, upsert *store.UpsertAssociation) error {
	stmt := `
		INSERT INTO association (record_key, tag_path, created_ts)
		VALUES (?, ?, ?)
		ON CONFLICT (record_key, tag_path) DO NOTHING
	`
	_, err := d.db.ExecContext(ctx, stmt,
		upsert.RecordKey,
		upsert.TagPath,
		time.Now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert association")
	}
	return nil
}

func associationWhere(find *store.FindAssociation) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if find.RecordKey != nil {
		where, args = append(where, "record_key = ?"), append(args, *find.RecordKey)
	}
	if len(find.RecordKeys) > 0 {
		placeholders := make([]string, 0, len(find.RecordKeys))
		for _, key := range find.RecordKeys {
			placeholders = append(placeholders, "?")
			args = append(args, key)
		}
		where = append(where, "record_key IN ("+strings.Join(placeholders, ", ")+")")
	}
	if find.TagPath != nil {
		where, args = append(where, "tag_path = ?"), append(args, *find.TagPath)
	}
	if find.TagPathPrefix != nil {
		where, args = append(where, `tag_path LIKE ? ESCAPE '\'`), append(args, likePrefixPattern(*find.TagPathPrefix))
	}
	if find.TagPathFamily != nil {
		where = append(where, `(tag_path = ? OR tag_path LIKE ? ESCAPE '\')`)
		args = append(args, find.TagPathFamily.Path, likePrefixPattern(find.TagPathFamily.ChildPrefix))
	}

	return where, args
}

func (d *DB) ListAssociations(ctx context.Context, find *store.FindAssociation) ([]*store.Association, error) {
	where, args := associationWhere(find)

	query := `SELECT record_key, tag_path, created_ts
		FROM association
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY tag_path, record_key`

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
		return nil, errors.Wrap(err, "failed to list associations")
	}
	defer rows.Close()

	var associations []*store.Association
	for rows.Next() {
		var association store.Association
		if err := rows.Scan(&association.RecordKey, &association.TagPath, &association.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan association")
		}
		associations = append(associations, &association)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return associations, nil
}

func (d *DB) ListAssociatedRecordKeys(ctx context.Context, find *store.FindAssociation) ([]string, error) {
	where, args := associationWhere(find)

	query := `SELECT DISTINCT record_key
		FROM association
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY record_key`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list associated record keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "failed to scan record key")
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

func (d *DB) DeleteAssociations(ctx context.Context, delete *store.DeleteAssociation) error {
	stmt := `DELETE FROM association WHERE record_key = ?`
	args := []any{delete.RecordKey}
	if delete.TagPath != nil {
		stmt += " AND tag_path = ?"
		args = append(args, *delete.TagPath)
	}
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to delete associations")
	}
	return nil
}
