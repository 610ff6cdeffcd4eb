package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

// busyTimeoutMillis bounds how long a transaction waits for the writer lock
// before failing with SQLITE_BUSY.
const busyTimeoutMillis = 5000

type DB struct {
	*sql.DB
}

// Querier is satisfied by both *sql.DB and *sql.Tx, so repositories can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens an encrypted SQLite database with the given password.
// dbPath is the full path to the database file.
//
// Transactions are opened with BEGIN IMMEDIATE so the writer lock is taken up
// front; concurrent writers queue on the busy timeout instead of failing on
// lock upgrade.
func Open(dbPath, password string) (*DB, error) {
	// Create parent directories if they don't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(dbPath, password))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Ping to verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// dsn builds the connection string. The raw key is derived from the password
// so it never has to be quoted inside the PRAGMA.
func dsn(dbPath, password string) string {
	sum := sha256.Sum256([]byte(password))
	params := url.Values{}
	params.Set("_pragma_key", fmt.Sprintf("x'%s'", hex.EncodeToString(sum[:])))
	params.Set("_foreign_keys", "1")
	params.Set("_busy_timeout", fmt.Sprint(busyTimeoutMillis))
	params.Set("_txlock", "immediate")
	return dbPath + "?" + params.Encode()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
