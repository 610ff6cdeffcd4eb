package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/db/dbtest"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	database := dbtest.Open(t)

	require.NoError(t, database.RunMigrations())

	var version int
	require.NoError(t, database.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestTables_AllExist(t *testing.T) {
	database := dbtest.Open(t)

	for _, table := range db.Tables() {
		var name string
		err := database.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestOpen_WrongKeyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.db")

	database, err := db.Open(path, "right-key")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations())
	require.NoError(t, database.Close())

	_, err = db.Open(path, "wrong-key")
	assert.Error(t, err)
}

func TestStockQuantityCheckConstraint(t *testing.T) {
	database := dbtest.Open(t)

	_, err := database.Exec(`INSERT INTO medicines (name, price, created_at) VALUES ('Aspirin', '2.50', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO stocks (medicine_id, quantity, last_updated) VALUES (1, -1, '2026-01-01T00:00:00Z')`)
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	database := dbtest.Open(t)

	_, err := database.Exec(`INSERT INTO users (username) VALUES ('pharm')`)
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO users (username) VALUES ('pharm')`)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "users.username"))
	assert.True(t, db.IsUniqueViolation(err, ""))
	assert.False(t, db.IsUniqueViolation(err, "invoices.order_id"))
	assert.False(t, db.IsBusy(err))
}
