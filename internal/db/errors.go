package db

import (
	"errors"
	"strings"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

// IsBusy reports whether err means the database lock could not be acquired
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure on the
// given "table.column". An empty column matches any unique violation.
func IsUniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return column == "" || strings.Contains(sqliteErr.Error(), column)
}
