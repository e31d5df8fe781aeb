package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrTagNodeNotFound is returned by lookups that resolve without creating.
var ErrTagNodeNotFound = errors.New("tag node not found")

// ErrRootDeletionForbidden is returned when a delete targets the root.
var ErrRootDeletionForbidden = errors.New("root tag node cannot be deleted")

// TagNode is one node of the tag tree. Identity is the canonical path;
// two values with the same path are interchangeable.
type TagNode struct {
	// Path is the canonical tag path and unique identity key.
	Path string
	// ParentPath is the path of the immediate parent; "" means the parent
	// is the root.
	ParentPath string
	CreatedTs  int64
}

// IsRoot reports whether the node is the root sentinel. The root is never
// persisted; it stands for "all tags".
func (t *TagNode) IsRoot() bool {
	return t.Path == ""
}

// RootTagNode returns the root sentinel.
func RootTagNode() *TagNode {
	return &TagNode{}
}

// FindTagNode is the find condition for tag nodes.
type FindTagNode struct {
	Path       *string
	ParentPath *string
	// PathPrefix matches every node whose path starts with the prefix,
	// i.e. the strict descendants of the path the prefix was derived from.
	PathPrefix *string
	Limit      *int
	Offset     *int
}

// DeleteTagNode is the delete condition for a cascading subtree delete.
type DeleteTagNode struct {
	Path string
	// PathPrefix extends the delete to every descendant of Path.
	PathPrefix string
}

// GetTagNode resolves a raw path to its node, creating the node and any
// missing ancestors on first use. Idempotent; concurrent calls for
// overlapping paths are resolved by the path uniqueness constraint.
func (s *Store) GetTagNode(ctx context.Context, raw string) (*TagNode, error) {
	path, err := s.codec.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return RootTagNode(), nil
	}

	chain := append(s.codec.Ancestors(path), path)
	for _, prefix := range chain {
		create := &TagNode{
			Path:       prefix,
			ParentPath: s.codec.ParentPath(prefix),
		}
		if err := s.driver.CreateTagNode(ctx, create); err != nil {
			return nil, errors.Wrapf(err, "failed to materialize tag node %q", prefix)
		}
	}

	return s.lookupByPath(ctx, path)
}

// LookupTagNode resolves a raw path without creating anything. It returns
// ErrTagNodeNotFound when no node exists for the path. The empty path
// resolves to the root sentinel.
func (s *Store) LookupTagNode(ctx context.Context, raw string) (*TagNode, error) {
	path, err := s.codec.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return RootTagNode(), nil
	}
	return s.lookupByPath(ctx, path)
}

func (s *Store) lookupByPath(ctx context.Context, path string) (*TagNode, error) {
	nodes, err := s.driver.ListTagNodes(ctx, &FindTagNode{Path: &path})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errors.Wrapf(ErrTagNodeNotFound, "path %q", path)
	}
	return nodes[0], nil
}

// ChildTagNodes returns the children of a node: the immediate children
// when direct is true, the full descendant set otherwise. The node itself
// is never included.
func (s *Store) ChildTagNodes(ctx context.Context, node *TagNode, direct bool) ([]*TagNode, error) {
	if direct {
		parentPath := node.Path
		return s.driver.ListTagNodes(ctx, &FindTagNode{ParentPath: &parentPath})
	}
	if node.IsRoot() {
		// Every persisted node descends from the root.
		return s.driver.ListTagNodes(ctx, &FindTagNode{})
	}
	prefix := s.codec.ChildPrefix(node.Path)
	return s.driver.ListTagNodes(ctx, &FindTagNode{PathPrefix: &prefix})
}

// FamilyTagNodes returns a node's family: the node plus all descendants.
func (s *Store) FamilyTagNodes(ctx context.Context, node *TagNode) ([]*TagNode, error) {
	children, err := s.ChildTagNodes(ctx, node, false)
	if err != nil {
		return nil, err
	}
	return append([]*TagNode{node}, children...), nil
}

// ParentTagNode returns the parent of a node, the root sentinel for
// depth-one nodes, and nil for the root itself.
func (s *Store) ParentTagNode(ctx context.Context, node *TagNode) (*TagNode, error) {
	if node.IsRoot() {
		return nil, nil
	}
	parentPath := s.codec.ParentPath(node.Path)
	if parentPath == "" {
		return RootTagNode(), nil
	}
	return s.lookupByPath(ctx, parentPath)
}

// TagNodeDepth returns the number of segments in the node's path.
func (s *Store) TagNodeDepth(node *TagNode) int {
	return s.codec.Depth(node.Path)
}

// DeleteTagNode removes a node, every descendant, and every association
// referencing any of them, atomically. Deleting the root is forbidden.
func (s *Store) DeleteTagNode(ctx context.Context, node *TagNode) error {
	if node.IsRoot() {
		return ErrRootDeletionForbidden
	}
	return s.driver.DeleteTagNodes(ctx, &DeleteTagNode{
		Path:       node.Path,
		PathPrefix: s.codec.ChildPrefix(node.Path),
	})
}
