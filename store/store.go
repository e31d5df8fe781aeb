package store

import (
	"context"

	"github.com/hrygo/tagtree/internal/profile"
	"github.com/hrygo/tagtree/plugin/tagpath"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
	codec   *tagpath.Codec
}

// New creates a new instance of Store. The path codec is derived from the
// profile's separator setting and shared by every hierarchy operation.
func New(driver Driver, profile *profile.Profile) *Store {
	codec := tagpath.NewCodec(tagpath.WithSeparator(profile.Separator))
	return &Store{
		driver:  driver,
		profile: profile,
		codec:   codec,
	}
}

// Codec returns the path codec in force for this store.
func (s *Store) Codec() *tagpath.Codec {
	return s.codec
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate applies the storage schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}
