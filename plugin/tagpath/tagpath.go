// Package tagpath parses and serializes hierarchical tag paths.
//
// A tag path addresses a node in the tag tree as an ordered sequence of
// segment names joined by a separator, e.g. "project::backend::storage".
// The empty path addresses the root of the tree.
package tagpath

import (
	"strings"

	"github.com/pkg/errors"
)

// DefaultSeparator is the canonical hierarchy separator.
const DefaultSeparator = "::"

// ErrInvalidPath is returned for malformed tag paths: a segment that is
// empty after trimming, or a segment that embeds the separator.
var ErrInvalidPath = errors.New("invalid tag path")

// Codec converts between raw tag path strings and canonical segment
// sequences. The separator is per-instance configuration; paths persisted
// under a different separator are not migrated, so the separator must stay
// stable for the lifetime of the stored data.
type Codec struct {
	separator string
}

// Option configures a Codec.
type Option func(*Codec)

// WithSeparator overrides the hierarchy separator.
func WithSeparator(separator string) Option {
	return func(c *Codec) {
		c.separator = separator
	}
}

// NewCodec creates a codec with the given options.
func NewCodec(opts ...Option) *Codec {
	codec := &Codec{separator: DefaultSeparator}
	for _, opt := range opts {
		opt(codec)
	}
	if codec.separator == "" {
		codec.separator = DefaultSeparator
	}
	return codec
}

// Separator returns the configured hierarchy separator.
func (c *Codec) Separator() string {
	return c.separator
}

// Parse splits a raw path into its trimmed segments. The empty string
// (after trimming) parses to an empty sequence, denoting the root.
func (c *Codec) Parse(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	parts := strings.Split(raw, c.separator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			return nil, errors.Wrapf(ErrInvalidPath, "empty segment in %q", raw)
		}
		segments = append(segments, segment)
	}
	return segments, nil
}

// Canonicalize parses a raw path and reassembles it with trimmed segments
// and the canonical separator. The root canonicalizes to "".
func (c *Codec) Canonicalize(raw string) (string, error) {
	segments, err := c.Parse(raw)
	if err != nil {
		return "", err
	}
	return c.Join(segments...), nil
}

// Join assembles segments into a path. Segments must be legal; use Parse
// to validate untrusted input first.
func (c *Codec) Join(segments ...string) string {
	return strings.Join(segments, c.separator)
}

// JoinChild appends a short name under a parent path. An empty parent
// denotes the root, so the child path is the short name itself.
func (c *Codec) JoinChild(parentPath, shortName string) string {
	if parentPath == "" {
		return shortName
	}
	return parentPath + c.separator + shortName
}

// ParentPath strips the last segment. Paths of depth one (and the root)
// map to the root path "".
func (c *Codec) ParentPath(path string) string {
	idx := strings.LastIndex(path, c.separator)
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// ShortName returns the last segment of a path.
func (c *Codec) ShortName(path string) string {
	idx := strings.LastIndex(path, c.separator)
	if idx < 0 {
		return path
	}
	return path[idx+len(c.separator):]
}

// Depth returns the number of segments. The root has depth zero.
func (c *Codec) Depth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, c.separator) + 1
}

// Ancestors returns every proper ancestor path of the given path,
// shallowest first, excluding the root. "a::b::c" yields ["a", "a::b"].
func (c *Codec) Ancestors(path string) []string {
	ancestors := []string{}
	for i := 0; i < len(path); {
		idx := strings.Index(path[i:], c.separator)
		if idx < 0 {
			break
		}
		ancestors = append(ancestors, path[:i+idx])
		i += idx + len(c.separator)
	}
	return ancestors
}

// ChildPrefix returns the prefix shared by every strict descendant of the
// given path: the path plus one trailing separator, or "" for the root
// (every non-root path descends from the root).
func (c *Codec) ChildPrefix(path string) string {
	if path == "" {
		return ""
	}
	return path + c.separator
}
