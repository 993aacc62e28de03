package testutils

import (
	"context"
	"testing"

	"github.com/Black-And-White-Club/mtb-results/config"
	"github.com/Black-And-White-Club/mtb-results/db/bundb"
	"github.com/uptrace/bun"
)

// NewSQLiteDB opens a migrated in-memory SQLite database that is closed when the test ends.
func NewSQLiteDB(t testing.TB) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := bundb.Open(ctx, config.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := bundb.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return db
}
