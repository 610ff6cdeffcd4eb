package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayout is RFC3339 with a fixed nine-digit fraction. Times are always
// written in UTC and at constant width so string comparison in SQL matches
// time order down to the nanosecond.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// parseTime parses a time string written by formatTime
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// formatTime formats t in UTC using timeLayout
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// nullableTime converts an optional time into a value for a nullable column
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// scanNullableTime parses an optional time column
func scanNullableTime(s sql.NullString, field string) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return &t, nil
}

// nullableInt64 converts an optional ID into a value for a nullable column
func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func scanNullableInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// nullableString stores an empty string as NULL
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
