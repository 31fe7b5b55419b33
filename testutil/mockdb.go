package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// SessionTableSQL is the schema of the session key/value table
const SessionTableSQL = `
	CREATE TABLE IF NOT EXISTS sessionKV (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at INTEGER NOT NULL DEFAULT 0
	)`

// CreateInMemoryDB creates an in-memory SQLite database for testing
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(SessionTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create sessionKV table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTestDB creates a test database with one valid and one malformed session
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	InsertSession(t, db, "fake-alice", ValidSessionJSON)
	InsertSession(t, db, "fake-broken", MalformedSessionJSON)

	return db
}

// InsertSession inserts a raw session value into the database
func InsertSession(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	insertSQL := "INSERT INTO sessionKV (key, value, updated_at) VALUES (?, ?, 0)"
	if _, err := db.Exec(insertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}
}
