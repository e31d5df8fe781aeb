package store

import (
	"context"
	"database/sql"
)

// Driver is the storage engine contract. Implementations must enforce a
// uniqueness constraint on tag_node.path and on the
// (association.record_key, association.tag_path) pair, support prefix
// lookups over tag paths through an index, and perform multi-row deletes
// transactionally.
type Driver interface {
	GetDB() *sql.DB
	Migrate(ctx context.Context) error
	Close() error

	// CreateTagNode inserts a tag node. Inserting an already existing path
	// is a no-op, so a lost check-then-create race degrades to a lookup.
	CreateTagNode(ctx context.Context, create *TagNode) error
	ListTagNodes(ctx context.Context, find *FindTagNode) ([]*TagNode, error)
	// DeleteTagNodes removes the matching nodes and every association
	// referencing them in a single transaction.
	DeleteTagNodes(ctx context.Context, delete *DeleteTagNode) error

	// UpsertAssociation inserts a record-tag link. Inserting an existing
	// pair is a no-op.
	UpsertAssociation(ctx context.Context, upsert *UpsertAssociation) error
	ListAssociations(ctx context.Context, find *FindAssociation) ([]*Association, error)
	// ListAssociatedRecordKeys returns the distinct record keys matching
	// the find condition.
	ListAssociatedRecordKeys(ctx context.Context, find *FindAssociation) ([]string, error)
	DeleteAssociations(ctx context.Context, delete *DeleteAssociation) error
}
