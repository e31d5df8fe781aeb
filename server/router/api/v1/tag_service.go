package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/tagtree/plugin/tagpath"
	"github.com/hrygo/tagtree/server/auth"
	"github.com/hrygo/tagtree/store"
	"github.com/hrygo/tagtree/tagging"
)

type TagService struct {
	Store   *store.Store
	Manager *tagging.Manager
	Signer  *auth.TokenSigner
}

// TagTokens carries ready-to-use mutation tokens for one (record, path)
// pair, so the caller can re-render toggle controls without another
// round trip.
type TagTokens struct {
	Add    string `json:"add"`
	Remove string `json:"remove"`
}

type MutateTagRequest struct {
	Token string `json:"token"`
	// RecordKey and Path are optional claims; when present they must
	// match the token exactly.
	RecordKey string `json:"recordKey,omitempty"`
	Path      string `json:"path,omitempty"`
	// Reference is an opaque caller payload echoed back unchanged.
	Reference json.RawMessage `json:"reference,omitempty"`
}

type MutateTagResponse struct {
	RecordKey string          `json:"recordKey"`
	Path      string          `json:"path"`
	Action    string          `json:"action"`
	Tokens    *TagTokens      `json:"tokens"`
	Reference json.RawMessage `json:"reference,omitempty"`
}

// MutateTag executes the add/remove action bound into a capability token.
// An invalid token rejects the request without applying anything.
func (s *TagService) MutateTag(c echo.Context) error {
	var request MutateTagRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	claims, err := s.Signer.Verify(request.Token)
	if err != nil {
		tagMutationCounter.WithLabelValues("unknown", "rejected").Inc()
		return httpError(err)
	}
	if request.RecordKey != "" && request.RecordKey != claims.RecordKey {
		tagMutationCounter.WithLabelValues(claims.Action, "rejected").Inc()
		return httpError(errors.Wrap(auth.ErrTokenInvalid, "record mismatch"))
	}
	if request.Path != "" && request.Path != claims.Path {
		tagMutationCounter.WithLabelValues(claims.Action, "rejected").Inc()
		return httpError(errors.Wrap(auth.ErrTokenInvalid, "path mismatch"))
	}

	ctx := c.Request().Context()
	path := claims.Path
	switch claims.Action {
	case auth.ActionAdd:
		node, err := s.Manager.TagAdd(ctx, claims.RecordKey, claims.Path)
		if err != nil {
			tagMutationCounter.WithLabelValues(claims.Action, "error").Inc()
			return httpError(err)
		}
		path = node.Path
	case auth.ActionRemove:
		if err := s.Manager.TagRemove(ctx, claims.RecordKey, claims.Path); err != nil {
			tagMutationCounter.WithLabelValues(claims.Action, "error").Inc()
			return httpError(err)
		}
	}
	tagMutationCounter.WithLabelValues(claims.Action, "ok").Inc()

	tokens, err := s.issueTokens(claims.RecordKey, path)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, &MutateTagResponse{
		RecordKey: claims.RecordKey,
		Path:      path,
		Action:    claims.Action,
		Tokens:    tokens,
		Reference: request.Reference,
	})
}

type RecordTagPayload struct {
	Path      string     `json:"path"`
	ShortName string     `json:"shortName"`
	Depth     int        `json:"depth"`
	Tokens    *TagTokens `json:"tokens"`
}

type ListRecordTagsResponse struct {
	RecordKey string              `json:"recordKey"`
	Tags      []*RecordTagPayload `json:"tags"`
}

// ListRecordTags enumerates a record's direct tags, each annotated with
// fresh add/remove tokens for rendering.
func (s *TagService) ListRecordTags(c echo.Context) error {
	recordKey := c.Param("recordKey")
	paths, err := s.Manager.DirectTags(c.Request().Context(), recordKey)
	if err != nil {
		return httpError(err)
	}

	codec := s.Store.Codec()
	tags := make([]*RecordTagPayload, 0, len(paths))
	for _, path := range paths {
		tokens, err := s.issueTokens(recordKey, path)
		if err != nil {
			return httpError(err)
		}
		tags = append(tags, &RecordTagPayload{
			Path:      path,
			ShortName: codec.ShortName(path),
			Depth:     codec.Depth(path),
			Tokens:    tokens,
		})
	}
	return c.JSON(http.StatusOK, &ListRecordTagsResponse{
		RecordKey: recordKey,
		Tags:      tags,
	})
}

type ListTaggedRecordsResponse struct {
	Path            string   `json:"path"`
	IncludeChildren bool     `json:"includeChildren"`
	RecordKeys      []string `json:"recordKeys"`
}

// ListTaggedRecords answers the reverse query: which records carry the
// tag, including descendant tags unless includeChildren=false.
func (s *TagService) ListTaggedRecords(c echo.Context) error {
	path := c.QueryParam("path")
	includeChildren := queryBool(c, "includeChildren", true)

	keys, err := s.Manager.RecordsTaggedAs(c.Request().Context(), path, includeChildren)
	if err != nil {
		return httpError(err)
	}
	if keys == nil {
		keys = []string{}
	}
	canonical, err := s.Store.Codec().Canonicalize(path)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, &ListTaggedRecordsResponse{
		Path:            canonical,
		IncludeChildren: includeChildren,
		RecordKeys:      keys,
	})
}

type TagNodePayload struct {
	Path       string `json:"path"`
	ParentPath string `json:"parentPath"`
	ShortName  string `json:"shortName"`
	Depth      int    `json:"depth"`
}

type ListTagNodesResponse struct {
	Path string            `json:"path"`
	Tags []*TagNodePayload `json:"tags"`
}

// ListTagNodes browses the hierarchy below a path: immediate children
// with direct=true, the full descendant set otherwise. The empty path
// browses from the root.
func (s *TagService) ListTagNodes(c echo.Context) error {
	ctx := c.Request().Context()
	node, err := s.Store.LookupTagNode(ctx, c.QueryParam("path"))
	if err != nil {
		return httpError(err)
	}
	children, err := s.Store.ChildTagNodes(ctx, node, queryBool(c, "direct", false))
	if err != nil {
		return httpError(err)
	}

	codec := s.Store.Codec()
	tags := make([]*TagNodePayload, 0, len(children))
	for _, child := range children {
		tags = append(tags, &TagNodePayload{
			Path:       child.Path,
			ParentPath: child.ParentPath,
			ShortName:  codec.ShortName(child.Path),
			Depth:      codec.Depth(child.Path),
		})
	}
	return c.JSON(http.StatusOK, &ListTagNodesResponse{
		Path: node.Path,
		Tags: tags,
	})
}

type DeleteTagResponse struct {
	Path string `json:"path"`
}

// DeleteTag removes a tag node and its whole subtree, including every
// association referencing it. Destructive; callers wanting a preview
// should browse the subtree first.
func (s *TagService) DeleteTag(c echo.Context) error {
	ctx := c.Request().Context()
	node, err := s.Store.LookupTagNode(ctx, c.QueryParam("path"))
	if err != nil {
		return httpError(err)
	}
	if err := s.Store.DeleteTagNode(ctx, node); err != nil {
		tagSubtreeDeleteCounter.WithLabelValues("error").Inc()
		return httpError(err)
	}
	tagSubtreeDeleteCounter.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, &DeleteTagResponse{Path: node.Path})
}

func (s *TagService) issueTokens(recordKey, path string) (*TagTokens, error) {
	addToken, err := s.Signer.Issue(recordKey, path, auth.ActionAdd)
	if err != nil {
		return nil, err
	}
	removeToken, err := s.Signer.Issue(recordKey, path, auth.ActionRemove)
	if err != nil {
		return nil, err
	}
	return &TagTokens{Add: addToken, Remove: removeToken}, nil
}

func queryBool(c echo.Context, name string, defaultValue bool) bool {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, auth.ErrTokenInvalid):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid mutation token").SetInternal(err)
	case errors.Is(err, tagpath.ErrInvalidPath):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tag path").SetInternal(err)
	case errors.Is(err, store.ErrRootDeletionForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "root tag cannot be deleted").SetInternal(err)
	case errors.Is(err, store.ErrTagNodeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "tag not found").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
