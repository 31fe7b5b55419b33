package internal

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultPageSize is the number of events fetched per history page.
const DefaultPageSize = 20

// Credentials are the login inputs for a provider. Which fields are used
// depends on the provider kind.
type Credentials struct {
	Server   string            `json:"server,omitempty"`
	Username string            `json:"username,omitempty"`
	Password string            `json:"password,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// SyncBatch is the result of one incremental sync call
type SyncBatch struct {
	Events    []RawEvent // newest first
	NextToken string
}

// HistoryPage is the result of one backward pagination call
type HistoryPage struct {
	Events     []RawEvent // newest first
	NextCursor *string    // nil when history is exhausted
}

// Authenticator creates and restores sessions for one provider kind.
type Authenticator interface {
	Kind() string
	// Authenticate logs in and returns a new session. The session's Client
	// part must be filled by the caller-provided client session.
	Authenticate(ctx context.Context, creds Credentials, cs ClientSession) (*Session, error)
	// Resume reconnects using a stored session.
	Resume(ctx context.Context, session *Session) (Provider, error)
}

// Provider is a connected handle to a remote chat network. Every method is a
// network call and may block.
type Provider interface {
	AccountID() string
	// Sync returns the events since cursor (nil for an initial sync) and the
	// next opaque token.
	Sync(ctx context.Context, cursor *string) (SyncBatch, error)
	ListConversations(ctx context.Context) ([]ConversationSummary, error)
	// FetchHistory returns up to limit events older than before (the newest
	// events when before is nil).
	FetchHistory(ctx context.Context, conversationID string, before *string, limit int) (HistoryPage, error)
	ResolveSender(ctx context.Context, conversationID, senderID string) (SenderProfile, error)
	DeleteEvent(ctx context.Context, conversationID, eventID string) error
	// UserSession returns the current provider auth blob for persistence.
	UserSession() ([]byte, error)
	Close() error
}

// SessionEnder is implemented by providers that can end a session on the
// remote side. Providers without it are only logged out locally.
type SessionEnder interface {
	Logout(ctx context.Context) error
}

// Providers maps provider kinds to their authenticators
type Providers struct {
	mu    sync.RWMutex
	byKey map[string]Authenticator
}

// NewProviders creates a provider set from the given authenticators
func NewProviders(auths ...Authenticator) *Providers {
	p := &Providers{byKey: make(map[string]Authenticator)}
	for _, a := range auths {
		p.Register(a)
	}
	return p
}

// Register adds or replaces the authenticator for its kind
func (p *Providers) Register(a Authenticator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byKey[a.Kind()] = a
}

// Get returns the authenticator for kind
func (p *Providers) Get(kind string) (Authenticator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.byKey[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}
	return a, nil
}

// Kinds returns the registered provider kinds, sorted
func (p *Providers) Kinds() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	kinds := make([]string, 0, len(p.byKey))
	for k := range p.byKey {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
