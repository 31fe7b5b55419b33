package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// ValidSessionJSON is a persisted session for the account "alice"
const ValidSessionJSON = `{
  "client_session": {"passphrase": "0123456789abcdefghijABCDEFGHIJkl", "data_dir": "/tmp/chat-timeline/abc1234"},
  "user_session": {"token": "tok-alice"},
  "sync_token": "sync-7"
}`

// MalformedSessionJSON is a value that does not decode as a session
const MalformedSessionJSON = `{"client_session": "not-an-object"`

// CreateSQLiteFixture creates a session database file with sample data
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(SessionTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	InsertSession(t, db, "fake-alice", ValidSessionJSON)
}

// WriteConfigFixture writes config.yaml under dir and returns its path
func WriteConfigFixture(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}
	return path
}
