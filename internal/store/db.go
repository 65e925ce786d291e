// Package store is the client's local SQLite cache: the saved credential
// and the pending payment-return reference. Nothing here is authoritative;
// it exists so a login and an in-flight payment survive a restart.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenDB opens the local SQLite database at the given path.
// If path is ":memory:", uses an in-memory database.
// Sets WAL mode and runs migrations automatically.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// migrate runs all schema statements. Statements are idempotent so the
// whole list reruns on every open.
func migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS credential (
		id        TEXT PRIMARY KEY DEFAULT 'current',
		token     TEXT NOT NULL,
		user_id   INTEGER NOT NULL,
		user_name TEXT NOT NULL DEFAULT '',
		role      TEXT NOT NULL DEFAULT 'artisan'
		          CHECK(role IN ('artisan','organizer','admin')),
		saved_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS payment_return (
		id        TEXT PRIMARY KEY DEFAULT 'pending',
		reference TEXT NOT NULL,
		saved_at  TEXT NOT NULL
	)`,
}
