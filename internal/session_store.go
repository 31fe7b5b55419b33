package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionStore persists provider sessions under "{provider_kind}-{account_id}" keys
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	// Load returns ErrSessionNotFound for unknown keys and an error wrapping
	// ErrMalformedStoredSession for values that do not decode.
	Load(ctx context.Context, key string) (*Session, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// SQLiteSessionStore keeps sessions in the sessionKV table
type SQLiteSessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteSessionStore creates a store on an open database
func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db, now: time.Now}
}

// OpenSessionStore opens the database at path and wraps it in a store
func OpenSessionStore(path string) (*SQLiteSessionStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &SessionStoreError{Op: "open", Err: err}
	}
	return NewSQLiteSessionStore(db), nil
}

// DB returns the underlying database handle
func (s *SQLiteSessionStore) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database
func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}

// Save writes the session, replacing any previous value for its key
func (s *SQLiteSessionStore) Save(ctx context.Context, session *Session) error {
	key := session.Key()
	data, err := MarshalSession(session)
	if err != nil {
		return &SessionStoreError{Key: key, Op: "save", Err: err}
	}

	const upsert = `
		INSERT INTO sessionKV (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, upsert, key, string(data), s.now().Unix()); err != nil {
		return &SessionStoreError{Key: key, Op: "save", Err: err}
	}

	LogDebug("Saved session %s", key)
	return nil
}

// Load reads and decodes the session stored under key
func (s *SQLiteSessionStore) Load(ctx context.Context, key string) (*Session, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM sessionKV WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !value.Valid) {
		return nil, &SessionStoreError{Key: key, Op: "load", Err: ErrSessionNotFound}
	}
	if err != nil {
		return nil, &SessionStoreError{Key: key, Op: "load", Err: err}
	}

	session, err := UnmarshalSession(key, []byte(value.String))
	if err != nil {
		return nil, &SessionStoreError{Key: key, Op: "load", Err: err}
	}
	return session, nil
}

// Keys lists every stored session key
func (s *SQLiteSessionStore) Keys(ctx context.Context) ([]string, error) {
	pairs, err := QuerySessionKV(ctx, s.db, "%")
	if err != nil {
		return nil, &SessionStoreError{Op: "keys", Err: err}
	}
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.Key)
	}
	return keys, nil
}

// Delete removes a stored session. Deleting an unknown key is not an error.
func (s *SQLiteSessionStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessionKV WHERE key = ?", key); err != nil {
		return &SessionStoreError{Key: key, Op: "delete", Err: err}
	}
	return nil
}

// UpdatedAt returns when the session under key was last saved
func (s *SQLiteSessionStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM sessionKV WHERE key = ?", key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, &SessionStoreError{Key: key, Op: "load", Err: ErrSessionNotFound}
	}
	if err != nil {
		return time.Time{}, &SessionStoreError{Key: key, Op: "load", Err: fmt.Errorf("read updated_at: %w", err)}
	}
	return time.Unix(ts, 0), nil
}
