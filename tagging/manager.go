// Package tagging implements the record-tag association engine on top of
// the store: membership and reverse-membership queries with
// descendant-inclusive expansion, and the capability object that makes an
// arbitrary record type taggable.
//
// A record tagged with a descendant tag counts as tagged with every
// ancestor of that tag. That rule is applied at query time; only direct
// associations are stored.
package tagging

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/hrygo/tagtree/plugin/tagpath"
	"github.com/hrygo/tagtree/store"
)

// Manager answers tag membership queries and mutates record-tag
// associations. All hierarchy knowledge (separators, descendant
// expansion) stays here and in the store; callers deal in raw path
// strings and record keys.
type Manager struct {
	store *store.Store
}

// NewManager creates a manager over the given store.
func NewManager(store *store.Store) *Manager {
	return &Manager{store: store}
}

// Store returns the underlying store.
func (m *Manager) Store() *store.Store {
	return m.store
}

// TagAdd tags a record with the given path, materializing the tag node
// chain on demand. Re-adding an existing tag is a no-op. Returns the
// resolved node.
func (m *Manager) TagAdd(ctx context.Context, recordKey string, rawPath string) (*store.TagNode, error) {
	node, err := m.store.GetTagNode(ctx, rawPath)
	if err != nil {
		return nil, err
	}
	if node.IsRoot() {
		return nil, errors.Wrap(tagpath.ErrInvalidPath, "cannot tag a record with the root")
	}
	if err := m.store.UpsertAssociation(ctx, &store.UpsertAssociation{
		RecordKey: recordKey,
		TagPath:   node.Path,
	}); err != nil {
		return nil, err
	}
	return node, nil
}

// TagRemove removes the exact association between a record and a path.
// The tag node and other associations are untouched; removing an absent
// association is a no-op.
func (m *Manager) TagRemove(ctx context.Context, recordKey string, rawPath string) error {
	path, err := m.store.Codec().Canonicalize(rawPath)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.Wrap(tagpath.ErrInvalidPath, "cannot untag the root")
	}
	return m.store.DeleteAssociations(ctx, &store.DeleteAssociation{
		RecordKey: recordKey,
		TagPath:   &path,
	})
}

// DirectTags returns the paths directly associated with a record, without
// inheritance expansion.
func (m *Manager) DirectTags(ctx context.Context, recordKey string) ([]string, error) {
	associations, err := m.store.ListAssociations(ctx, &store.FindAssociation{RecordKey: &recordKey})
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(associations))
	for _, association := range associations {
		paths = append(paths, association.TagPath)
	}
	return paths, nil
}

// HasTag reports whether a record carries the given tag. With
// includeChildren, a direct association with any strict descendant of the
// path also counts.
func (m *Manager) HasTag(ctx context.Context, recordKey string, rawPath string, includeChildren bool) (bool, error) {
	find, err := m.TaggedAsFilter(rawPath, includeChildren)
	if err != nil {
		return false, err
	}
	find.RecordKey = &recordKey
	limit := 1
	find.Limit = &limit
	associations, err := m.store.ListAssociations(ctx, find)
	if err != nil {
		return false, err
	}
	return len(associations) > 0, nil
}

// RecordsTaggedAs returns the distinct record keys tagged with the given
// path. With includeChildren the union over the path's family is
// returned; without it, only exact-path associations.
func (m *Manager) RecordsTaggedAs(ctx context.Context, rawPath string, includeChildren bool) ([]string, error) {
	find, err := m.TaggedAsFilter(rawPath, includeChildren)
	if err != nil {
		return nil, err
	}
	return m.store.ListAssociatedRecordKeys(ctx, find)
}

// TagsOf collects the union of direct tags across a batch of records.
// Used for summary display; not inheritance-aware.
func (m *Manager) TagsOf(ctx context.Context, recordKeys []string) ([]string, error) {
	if len(recordKeys) == 0 {
		return nil, nil
	}
	associations, err := m.store.ListAssociations(ctx, &store.FindAssociation{RecordKeys: recordKeys})
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var paths []string
	for _, association := range associations {
		if seen[association.TagPath] {
			continue
		}
		seen[association.TagPath] = true
		paths = append(paths, association.TagPath)
	}
	sort.Strings(paths)
	return paths, nil
}

// TaggedAsFilter translates a membership query into a find condition the
// storage drivers resolve with a single indexed predicate: an exact match
// without children, an exact-or-prefix match with them. Callers can
// extend the returned condition before running it.
func (m *Manager) TaggedAsFilter(rawPath string, includeChildren bool) (*store.FindAssociation, error) {
	codec := m.store.Codec()
	path, err := codec.Canonicalize(rawPath)
	if err != nil {
		return nil, err
	}
	if !includeChildren {
		return &store.FindAssociation{TagPath: &path}, nil
	}
	return &store.FindAssociation{
		TagPathFamily: &store.FamilyMatch{
			Path:        path,
			ChildPrefix: codec.ChildPrefix(path),
		},
	}, nil
}
