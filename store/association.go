package store

import "context"

// Association links a record to a tag node it carries directly. The
// record owns its associations; the tag node is only referenced, and a
// node delete cleans up every association referencing it.
type Association struct {
	RecordKey string
	TagPath   string
	CreatedTs int64
}

// UpsertAssociation is the upsert condition for an association.
type UpsertAssociation struct {
	RecordKey string
	TagPath   string
}

// FindAssociation is the find condition for associations. At most one of
// TagPath, TagPathPrefix and TagPathFamily should be set.
type FindAssociation struct {
	RecordKey  *string
	RecordKeys []string
	// TagPath matches the exact tag path.
	TagPath *string
	// TagPathPrefix matches strict descendants of the path the prefix was
	// derived from.
	TagPathPrefix *string
	// TagPathFamily matches the path itself or any strict descendant.
	TagPathFamily *FamilyMatch
	Limit         *int
	Offset        *int
}

// FamilyMatch describes a family of tag paths: the path itself plus every
// path starting with ChildPrefix. The prefix carries the separator in
// force when the condition was built, keeping the drivers separator
// agnostic.
type FamilyMatch struct {
	Path        string
	ChildPrefix string
}

// DeleteAssociation is the delete condition for associations. TagPath
// limits the delete to one link; without it every link of the record is
// removed (used when the owning record is destroyed).
type DeleteAssociation struct {
	RecordKey string
	TagPath   *string
}

// UpsertAssociation inserts a record-tag link. Re-adding an existing link
// is a no-op.
func (s *Store) UpsertAssociation(ctx context.Context, upsert *UpsertAssociation) error {
	return s.driver.UpsertAssociation(ctx, upsert)
}

// ListAssociations lists associations matching the find condition.
func (s *Store) ListAssociations(ctx context.Context, find *FindAssociation) ([]*Association, error) {
	return s.driver.ListAssociations(ctx, find)
}

// ListAssociatedRecordKeys returns the distinct record keys matching the
// find condition.
func (s *Store) ListAssociatedRecordKeys(ctx context.Context, find *FindAssociation) ([]string, error) {
	return s.driver.ListAssociatedRecordKeys(ctx, find)
}

// DeleteAssociations removes associations. Removing an absent link is a
// no-op.
func (s *Store) DeleteAssociations(ctx context.Context, delete *DeleteAssociation) error {
	return s.driver.DeleteAssociations(ctx, delete)
}
