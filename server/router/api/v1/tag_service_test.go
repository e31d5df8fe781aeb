package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/tagtree/server/auth"
	teststore "github.com/hrygo/tagtree/store/test"
	"github.com/hrygo/tagtree/tagging"
)

func newTestService(ctx context.Context, t *testing.T) (*TagService, *echo.Echo) {
	testStore := teststore.NewTestingStore(ctx, t)
	service := &TagService{
		Store:   testStore,
		Manager: tagging.NewManager(testStore),
		Signer:  auth.NewTokenSigner("test-secret", time.Minute),
	}
	return service, echo.New()
}

func postJSON(e *echo.Echo, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	encoded, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(encoded)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func get(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpStatus(t *testing.T, err error) int {
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr.Code
}

func TestMutateTagAdd(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	token, err := service.Signer.Issue("r1", "aaa::bbb", auth.ActionAdd)
	require.NoError(t, err)

	c, rec := postJSON(e, "/api/v1/tags/mutate", &MutateTagRequest{
		Token:     token,
		Reference: json.RawMessage(`{"row":7}`),
	})
	require.NoError(t, service.MutateTag(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response MutateTagResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "r1", response.RecordKey)
	assert.Equal(t, "aaa::bbb", response.Path)
	assert.Equal(t, auth.ActionAdd, response.Action)
	assert.JSONEq(t, `{"row":7}`, string(response.Reference))

	// Fresh tokens must authorize the follow-up toggle.
	claims, err := service.Signer.Verify(response.Tokens.Remove)
	require.NoError(t, err)
	assert.True(t, claims.Matches("r1", "aaa::bbb", auth.ActionRemove))

	tags, err := service.Manager.DirectTags(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa::bbb"}, tags)
}

func TestMutateTagRemove(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	_, err := service.Manager.TagAdd(ctx, "r1", "aaa")
	require.NoError(t, err)

	token, err := service.Signer.Issue("r1", "aaa", auth.ActionRemove)
	require.NoError(t, err)

	c, rec := postJSON(e, "/api/v1/tags/mutate", &MutateTagRequest{Token: token})
	require.NoError(t, service.MutateTag(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	tags, err := service.Manager.DirectTags(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestMutateTagRejectsInvalidToken(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	c, _ := postJSON(e, "/api/v1/tags/mutate", &MutateTagRequest{Token: "not.a.token"})
	err := service.MutateTag(c)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))

	// Nothing may be applied on rejection.
	tags, err := service.Manager.TagsOf(ctx, []string{"r1"})
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestMutateTagRejectsClaimMismatch(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	token, err := service.Signer.Issue("r1", "aaa", auth.ActionAdd)
	require.NoError(t, err)

	c, _ := postJSON(e, "/api/v1/tags/mutate", &MutateTagRequest{Token: token, RecordKey: "r2"})
	err = service.MutateTag(c)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))

	tags, err := service.Manager.DirectTags(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestListRecordTags(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	_, err := service.Manager.TagAdd(ctx, "r1", "aaa::bbb")
	require.NoError(t, err)

	c, rec := get(e, "/api/v1/records/r1/tags")
	c.SetParamNames("recordKey")
	c.SetParamValues("r1")
	require.NoError(t, service.ListRecordTags(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response ListRecordTagsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Tags, 1)
	assert.Equal(t, "aaa::bbb", response.Tags[0].Path)
	assert.Equal(t, "bbb", response.Tags[0].ShortName)
	assert.Equal(t, 2, response.Tags[0].Depth)

	claims, err := service.Signer.Verify(response.Tags[0].Tokens.Remove)
	require.NoError(t, err)
	assert.True(t, claims.Matches("r1", "aaa::bbb", auth.ActionRemove))
}

func TestListTaggedRecords(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	_, err := service.Manager.TagAdd(ctx, "r1", "aaa::111")
	require.NoError(t, err)
	_, err = service.Manager.TagAdd(ctx, "r2", "aaa::222")
	require.NoError(t, err)

	c, rec := get(e, "/api/v1/tags/records?path="+url.QueryEscape("aaa"))
	require.NoError(t, service.ListTaggedRecords(c))
	var response ListTaggedRecordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.IncludeChildren)
	assert.Equal(t, []string{"r1", "r2"}, response.RecordKeys)

	c, rec = get(e, fmt.Sprintf("/api/v1/tags/records?path=%s&includeChildren=false", url.QueryEscape("aaa")))
	require.NoError(t, service.ListTaggedRecords(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Empty(t, response.RecordKeys)
}

func TestListTagNodes(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	_, err := service.Store.GetTagNode(ctx, "a::b::c")
	require.NoError(t, err)

	c, rec := get(e, "/api/v1/tags?path=a&direct=true")
	require.NoError(t, service.ListTagNodes(c))
	var response ListTagNodesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Tags, 1)
	assert.Equal(t, "a::b", response.Tags[0].Path)

	c, rec = get(e, "/api/v1/tags?path=a")
	require.NoError(t, service.ListTagNodes(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Tags, 2)

	c, _ = get(e, "/api/v1/tags?path=missing")
	err = service.ListTagNodes(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestDeleteTag(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	_, err := service.Manager.TagAdd(ctx, "r1", "a::b")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tags?path=a", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, service.DeleteTag(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	tags, err := service.Manager.DirectTags(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestDeleteTagRootForbidden(t *testing.T) {
	ctx := context.Background()
	service, e := newTestService(ctx, t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tags", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	err := service.DeleteTag(c)
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
}
