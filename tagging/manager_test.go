package tagging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/tagtree/plugin/tagpath"
	teststore "github.com/hrygo/tagtree/store/test"
	"github.com/hrygo/tagtree/tagging"
)

func newTestManager(ctx context.Context, t *testing.T) *tagging.Manager {
	return tagging.NewManager(teststore.NewTestingStore(ctx, t))
}

func TestTagAddMaterializesNodeChain(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	node, err := manager.TagAdd(ctx, "r1", "aaa::111")
	require.NoError(t, err)
	assert.Equal(t, "aaa::111", node.Path)

	// Tagging a record creates the tag nodes as a side effect.
	ancestor, err := manager.Store().LookupTagNode(ctx, "aaa")
	require.NoError(t, err)
	assert.Equal(t, "aaa", ancestor.Path)
}

func TestTagAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	_, err := manager.TagAdd(ctx, "r1", "aaa")
	require.NoError(t, err)
	_, err = manager.TagAdd(ctx, "r1", "aaa")
	require.NoError(t, err)

	tags, err := manager.DirectTags(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa"}, tags)
}

func TestTagAddRejectsRoot(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	_, err := manager.TagAdd(ctx, "r1", "")
	assert.ErrorIs(t, err, tagpath.ErrInvalidPath)
}

func TestTagRemove(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	_, err := manager.TagAdd(ctx, "r1", "aaa::111")
	require.NoError(t, err)
	require.NoError(t, manager.TagRemove(ctx, "r1", "aaa::111"))

	tags, err := manager.DirectTags(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, tags)

	// The node outlives the association.
	_, err = manager.Store().LookupTagNode(ctx, "aaa::111")
	require.NoError(t, err)

	// Removing an absent association is a no-op.
	require.NoError(t, manager.TagRemove(ctx, "r1", "aaa::111"))
}

func TestHasTagInheritance(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	_, err := manager.TagAdd(ctx, "r1", "aaa::111")
	require.NoError(t, err)

	tests := []struct {
		name            string
		path            string
		includeChildren bool
		expected        bool
	}{
		{"ancestor inclusive", "aaa", true, true},
		{"ancestor exclusive", "aaa", false, false},
		{"exact inclusive", "aaa::111", true, true},
		{"exact exclusive", "aaa::111", false, true},
		{"unrelated", "bbb", true, false},
		{"descendant of direct tag", "aaa::111::x", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			has, err := manager.HasTag(ctx, "r1", tt.path, tt.includeChildren)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, has)
		})
	}
}

func TestRecordsTaggedAs(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	_, err := manager.TagAdd(ctx, "r1", "aaa::111")
	require.NoError(t, err)
	_, err = manager.TagAdd(ctx, "r2", "aaa::222")
	require.NoError(t, err)

	keys, err := manager.RecordsTaggedAs(ctx, "aaa", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, keys)

	keys, err = manager.RecordsTaggedAs(ctx, "aaa::111", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, keys)

	keys, err = manager.RecordsTaggedAs(ctx, "aaa", false)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRecordsTaggedAsDeduplicates(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	// r1 linked both directly and via a descendant.
	_, err := manager.TagAdd(ctx, "r1", "aaa")
	require.NoError(t, err)
	_, err = manager.TagAdd(ctx, "r1", "aaa::111")
	require.NoError(t, err)

	keys, err := manager.RecordsTaggedAs(ctx, "aaa", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, keys)
}

func TestTagsOf(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	_, err := manager.TagAdd(ctx, "r1", "aaa")
	require.NoError(t, err)
	_, err = manager.TagAdd(ctx, "r1", "bbb")
	require.NoError(t, err)
	_, err = manager.TagAdd(ctx, "r2", "aaa")
	require.NoError(t, err)
	_, err = manager.TagAdd(ctx, "r3", "ccc")
	require.NoError(t, err)

	paths, err := manager.TagsOf(ctx, []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "bbb"}, paths)

	paths, err = manager.TagsOf(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestTaggedAsFilterPushDown(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	// Exact-path filters translate to a single equality predicate.
	find, err := manager.TaggedAsFilter("aaa", false)
	require.NoError(t, err)
	require.NotNil(t, find.TagPath)
	assert.Equal(t, "aaa", *find.TagPath)
	assert.Nil(t, find.TagPathFamily)

	find, err = manager.TaggedAsFilter(" aaa :: bbb ", true)
	require.NoError(t, err)
	require.NotNil(t, find.TagPathFamily)
	assert.Equal(t, "aaa::bbb", find.TagPathFamily.Path)
	assert.Equal(t, "aaa::bbb::", find.TagPathFamily.ChildPrefix)

	// The returned condition is directly runnable against the store.
	_, err = manager.TagAdd(ctx, "r1", "aaa::bbb::ccc")
	require.NoError(t, err)
	keys, err := manager.Store().ListAssociatedRecordKeys(ctx, find)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, keys)
}

func TestDeleteTagNodeDropsRecordTags(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	_, err := manager.TagAdd(ctx, "r1", "aaa::111")
	require.NoError(t, err)

	node, err := manager.Store().LookupTagNode(ctx, "aaa")
	require.NoError(t, err)
	require.NoError(t, manager.Store().DeleteTagNode(ctx, node))

	tags, err := manager.DirectTags(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

type testRecord struct {
	key string
}

func (r *testRecord) TagKey() string {
	return r.key
}

var _ tagging.Taggable = (*testRecord)(nil)

func TestCapability(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(ctx, t)

	record := &testRecord{key: "doc-1"}
	capability := manager.Capability(record)

	require.NoError(t, capability.TagAdd(ctx, "project::backend"))
	require.NoError(t, capability.TagAdd(ctx, "priority::high"))

	tags, err := capability.Tags(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"project::backend", "priority::high"}, tags)

	has, err := capability.HasTag(ctx, "project", true)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, capability.TagRemove(ctx, "priority::high"))
	tags, err = capability.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"project::backend"}, tags)

	keys, err := manager.RecordsTaggedAs(ctx, "project", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, keys)
}
