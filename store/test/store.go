package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/erpdesk/internal/profile"
	"github.com/hrygo/erpdesk/store"
	"github.com/hrygo/erpdesk/store/db"
)

// getDriverFromEnv selects postgres when ERPDESK_TEST_POSTGRES=1 or POSTGRES_TEST_DSN is set.
func getDriverFromEnv() string {
	if os.Getenv("ERPDESK_TEST_POSTGRES") == "1" || os.Getenv("POSTGRES_TEST_DSN") != "" {
		return "postgres"
	}
	return "sqlite"
}

// NewTestingStore returns a migrated, empty store backed by a temporary database.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	return newTestingStore(ctx, t, "dev")
}

// NewDemoTestingStore returns a migrated store seeded with the demo ERP dataset.
func NewDemoTestingStore(ctx context.Context, t *testing.T) *store.Store {
	return newTestingStore(ctx, t, "demo")
}

func newTestingStore(ctx context.Context, t *testing.T, mode string) *store.Store {
	t.Helper()

	prof := getTestingProfile(t, mode)
	dbDriver, err := db.NewDBDriver(prof)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, prof)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return s
}

func getTestingProfile(t *testing.T, mode string) *profile.Profile {
	dir := t.TempDir()
	prof := &profile.Profile{
		Mode:    mode,
		Data:    dir,
		Driver:  getDriverFromEnv(),
		Version: "test",
	}
	switch prof.Driver {
	case "postgres":
		prof.DSN = GetPostgresDSN(t)
	default:
		prof.DSN = filepath.Join(dir, "erpdesk_test.db")
	}
	return prof
}
