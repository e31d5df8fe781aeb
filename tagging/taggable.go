package tagging

import "context"

// Taggable is the contract a record type satisfies to become taggable: a
// stable key identifying the record across calls. Records compose a
// Capability instead of inheriting tagging behavior.
type Taggable interface {
	TagKey() string
}

// Capability bundles a taggable record with a manager. Embed or hold one
// to give a record type add/remove/list/query operations.
type Capability struct {
	manager *Manager
	record  Taggable
}

// Capability binds a record to this manager.
func (m *Manager) Capability(record Taggable) *Capability {
	return &Capability{manager: m, record: record}
}

// TagAdd tags the record with the given path.
func (c *Capability) TagAdd(ctx context.Context, rawPath string) error {
	_, err := c.manager.TagAdd(ctx, c.record.TagKey(), rawPath)
	return err
}

// TagRemove removes the record's direct association with the given path.
func (c *Capability) TagRemove(ctx context.Context, rawPath string) error {
	return c.manager.TagRemove(ctx, c.record.TagKey(), rawPath)
}

// Tags returns the record's direct tags.
func (c *Capability) Tags(ctx context.Context) ([]string, error) {
	return c.manager.DirectTags(ctx, c.record.TagKey())
}

// HasTag reports whether the record carries the tag, optionally counting
// descendant tags.
func (c *Capability) HasTag(ctx context.Context, rawPath string, includeChildren bool) (bool, error) {
	return c.manager.HasTag(ctx, c.record.TagKey(), rawPath, includeChildren)
}
