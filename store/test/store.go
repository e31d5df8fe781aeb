// Package teststore provides a SQLite-backed store for tests.
package teststore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/tagtree/internal/profile"
	"github.com/hrygo/tagtree/store"
	"github.com/hrygo/tagtree/store/db/sqlite"
)

// NewTestingStore creates a migrated store over a throwaway SQLite
// database. The database lives in the test's temp dir and is closed on
// cleanup.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	testProfile := GetTestingProfile(t)
	driver, err := sqlite.NewDB(testProfile)
	require.NoError(t, err)

	testStore := store.New(driver, testProfile)
	require.NoError(t, testStore.Migrate(ctx))
	t.Cleanup(func() {
		_ = testStore.Close()
	})
	return testStore
}

// GetTestingProfile returns a profile pointed at a temp SQLite database.
func GetTestingProfile(t *testing.T) *profile.Profile {
	dir := t.TempDir()
	return &profile.Profile{
		Mode:      "dev",
		Data:      dir,
		Driver:    "sqlite",
		DSN:       filepath.Join(dir, "tagtree_test.db"),
		Separator: "::",
	}
}
