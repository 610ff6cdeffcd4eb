// Package dbtest opens throwaway encrypted databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/andy/apothecary/internal/db"
)

// Key is the passphrase used for every test database
const Key = "test-key"

// Open creates a migrated database in a temp dir that is closed when the test ends
func Open(tb testing.TB) *db.DB {
	tb.Helper()

	database, err := db.Open(filepath.Join(tb.TempDir(), "test.db"), Key)
	if err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}
	tb.Cleanup(func() { database.Close() })

	if err := database.RunMigrations(); err != nil {
		tb.Fatalf("failed to run migrations: %v", err)
	}

	return database
}
