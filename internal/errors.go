package internal

import (
	"errors"
	"fmt"
)

// Provider-facing error taxonomy. Provider adapters wrap these so callers can
// match with errors.Is regardless of the network they came from.
var (
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrSessionExpired         = errors.New("session expired")
	ErrConversationNotFound   = errors.New("conversation not found")
	ErrTransientNetwork       = errors.New("transient network error")
	ErrMalformedStoredSession = errors.New("malformed stored session")
	ErrSerialization          = errors.New("serialization error")
)

// Engine errors.
var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrNoConversationSelected = errors.New("no conversation selected")
	ErrSyncInProgress         = errors.New("sync already in progress")
	ErrPaginationInFlight     = errors.New("history fetch already in progress")
	ErrUnknownProvider        = errors.New("unknown provider kind")
	ErrUnknownClient          = errors.New("unknown client handle")
	ErrSelectionSuperseded    = errors.New("superseded by a newer selection")
)

// ProviderError represents a failed call to a remote chat provider
type ProviderError struct {
	Kind string // provider kind, e.g. "matrix"
	Op   string // "sync", "fetch_history", ...
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error [%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// SessionStoreError represents errors reading or writing persisted sessions
type SessionStoreError struct {
	Key string
	Op  string // "open", "save", "load", "delete", "keys"
	Err error
}

func (e *SessionStoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("session store error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session store error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *SessionStoreError) Unwrap() error {
	return e.Err
}

// SelectionError represents a failed conversation switch. The previous
// selection is still in effect when this is returned.
type SelectionError struct {
	ConversationID string
	Err            error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("select conversation %s: %v", e.ConversationID, e.Err)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying by the caller.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientNetwork)
}
