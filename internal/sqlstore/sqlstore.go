// Package sqlstore holds the bootstrap logic shared by every store: opening
// a modernc.org/sqlite handle, setting the pragmas spec.md §5 requires
// ("enable the equivalent of write-ahead logging and enforce foreign-key
// constraints"), and executing an embedded schema. Grounded on the teacher's
// NewSQLiteOperationalDB/NewSQLiteLearningDB constructors.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Pragmas are applied, in order, to every opened handle.
var Pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA cache_size=-64000",
}

// Open opens (creating if necessary) a SQLite database at path, applies the
// standard pragmas, and executes schema (each store passes its own inline
// schema constant). A single connection is kept open, matching the teacher's
// "SQLite handles concurrency better with single connection" comment.
func Open(ctx context.Context, path string, schema string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range Pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlstore: pragma %q: %w", pragma, err)
		}
	}

	if schema != "" {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlstore: apply schema: %w", err)
		}
	}

	return db, nil
}

// BoolToInt converts a bool to the 0/1 SQLite stores it as.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IntToBool converts a 0/1 SQLite column back to bool.
func IntToBool(i int) bool {
	return i != 0
}

// NullIfZero returns nil for a zero int64, else the value — used for
// optional Unix-millis columns (expires_at, due_date, ...) that should
// read back as SQL NULL rather than 0.
func NullIfZero(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

// NullIfEmpty returns nil for an empty string, else the value.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
