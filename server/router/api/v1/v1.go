// Package v1 exposes the tag hierarchy and the record tagging operations
// over HTTP. Mutations are authorized by signed capability tokens so the
// presentation layer can render toggle controls without server-side
// session state.
package v1

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/hrygo/tagtree/internal/profile"
	"github.com/hrygo/tagtree/server/auth"
	"github.com/hrygo/tagtree/store"
	"github.com/hrygo/tagtree/tagging"
)

type APIV1Service struct {
	TagService *TagService

	Profile *profile.Profile
	Store   *store.Store
	Secret  string
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store) *APIV1Service {
	signer := auth.NewTokenSigner(secret, time.Duration(profile.TokenTTLSeconds)*time.Second)
	service := &APIV1Service{
		Profile: profile,
		Store:   store,
		Secret:  secret,
	}
	service.TagService = &TagService{
		Store:   store,
		Manager: tagging.NewManager(store),
		Signer:  signer,
	}
	return service
}

func (s *APIV1Service) RegisterRoutes(_ context.Context, echoServer *echo.Echo) {
	group := echoServer.Group("/api/v1")
	group.Use(middleware.CORS())

	// Token-authorized mutations are the only write path exposed to
	// anonymous callers; keep them rate limited.
	mutationLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20)))
	group.POST("/tags/mutate", s.TagService.MutateTag, mutationLimiter)

	group.GET("/records/:recordKey/tags", s.TagService.ListRecordTags)
	group.GET("/tags/records", s.TagService.ListTaggedRecords)
	group.GET("/tags", s.TagService.ListTagNodes)
	group.DELETE("/tags", s.TagService.DeleteTag)
}
