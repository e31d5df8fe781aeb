package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hrygo/tagtree/store"
)

func (db *DB) UpsertAssociation(ctx context.Context, upsert *store.UpsertAssociation) error {
	query := `
		INSERT INTO association (record_key, tag_path, created_ts)
		VALUES ($1, $2, $3)
		ON CONFLICT (record_key, tag_path) DO NOTHING
	`
	_, err := db.db.ExecContext(ctx, query,
		upsert.RecordKey,
		upsert.TagPath,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert association: %w", err)
	}
	return nil
}

func appendAssociationWhere(query string, find *store.FindAssociation, args []interface{}, argIndex int) (string, []interface{}, int) {
	if find.RecordKey != nil {
		query += fmt.Sprintf(" AND record_key = $%d", argIndex)
		args = append(args, *find.RecordKey)
		argIndex++
	}
	if len(find.RecordKeys) > 0 {
		query += fmt.Sprintf(" AND record_key = ANY($%d)", argIndex)
		args = append(args, pq.Array(find.RecordKeys))
		argIndex++
	}
	if find.TagPath != nil {
		query += fmt.Sprintf(" AND tag_path = $%d", argIndex)
		args = append(args, *find.TagPath)
		argIndex++
	}
	if find.TagPathPrefix != nil {
		query += fmt.Sprintf(` AND tag_path LIKE $%d ESCAPE '\'`, argIndex)
		args = append(args, likePrefixPattern(*find.TagPathPrefix))
		argIndex++
	}
	if find.TagPathFamily != nil {
		query += fmt.Sprintf(` AND (tag_path = $%d OR tag_path LIKE $%d ESCAPE '\')`, argIndex, argIndex+1)
		args = append(args, find.TagPathFamily.Path, likePrefixPattern(find.TagPathFamily.ChildPrefix))
		argIndex += 2
	}
	return query, args, argIndex
}

func (db *DB) ListAssociations(ctx context.Context, find *store.FindAssociation) ([]*store.Association, error) {
	query := `
		SELECT record_key, tag_path, created_ts
		FROM association
		WHERE 1=1
	`
	var args []interface{}
	query, args, argIndex := appendAssociationWhere(query, find, args, 1)

	query += " ORDER BY tag_path, record_key"

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
		return nil, fmt.Errorf("failed to list associations: %w", err)
	}
	defer rows.Close()

	var associations []*store.Association
	for rows.Next() {
		var association store.Association
		if err := rows.Scan(&association.RecordKey, &association.TagPath, &association.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		associations = append(associations, &association)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list associations: %w", err)
	}
	return associations, nil
}

func (db *DB) ListAssociatedRecordKeys(ctx context.Context, find *store.FindAssociation) ([]string, error) {
	query := `
		SELECT DISTINCT record_key
		FROM association
		WHERE 1=1
	`
	var args []interface{}
	query, args, _ = appendAssociationWhere(query, find, args, 1)
	query += " ORDER BY record_key"

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list associated record keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan record key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list associated record keys: %w", err)
	}
	return keys, nil
}

func (db *DB) DeleteAssociations(ctx context.Context, delete *store.DeleteAssociation) error {
	query := `DELETE FROM association WHERE record_key = $1`
	args := []interface{}{delete.RecordKey}
	if delete.TagPath != nil {
		query += " AND tag_path = $2"
		args = append(args, *delete.TagPath)
	}
	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete associations: %w", err)
	}
	return nil
}
