package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// FakeProviderKind is the provider kind of FakeAuthenticator sessions
const FakeProviderKind = "fake"

// CreateTestSession creates a session with a fixed passphrase and a token
// FakeAuthenticator accepts.
func CreateTestSession(kind, accountID string) *Session {
	return &Session{
		ProviderKind: kind,
		AccountID:    accountID,
		Client: ClientSession{
			Passphrase: "0123456789abcdefghijABCDEFGHIJkl",
			DataDir:    "/tmp/chat-timeline/test",
		},
		User: fakeUserSession(accountID),
	}
}

// CreateTestRawEvent creates a message event with no conversation id
func CreateTestRawEvent(id, senderID string, ts int64) RawEvent {
	return RawEvent{
		ID:        id,
		SenderID:  senderID,
		Timestamp: ts,
		Type:      RawEventMessage,
		Text:      "message " + id,
	}
}

// CreateTestMessage creates a message event in a conversation
func CreateTestMessage(conversationID, id, senderID string, ts int64) RawEvent {
	ev := CreateTestRawEvent(id, senderID, ts)
	ev.ConversationID = conversationID
	return ev
}

// NewestFirst returns the events, given oldest first, in provider order
func NewestFirst(events ...RawEvent) []RawEvent {
	out := make([]RawEvent, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}

func fakeUserSession(accountID string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"token":"tok-%s"}`, accountID))
}

// FakeProvider is an in-memory Provider for tests. History is kept oldest
// first; pagination cursors are "before:<index>".
type FakeProvider struct {
	mu            sync.Mutex
	account       string
	conversations []ConversationSummary
	history       map[string][]RawEvent
	pending       []RawEvent
	senders       map[string]SenderProfile
	deleted       []string

	syncErr    error
	listErr    error
	fetchErr   error
	resolveErr error
	deleteErr  error

	syncHook  func(ctx context.Context) error
	fetchHook func(ctx context.Context) error

	syncCalls    int
	fetchCalls   int
	resolveCalls int
	syncCount    int
	lastCursor   *string
	closed       bool
	loggedOut    bool
	logoutErr    error
}

// NewFakeProvider creates an empty provider for accountID
func NewFakeProvider(accountID string) *FakeProvider {
	return &FakeProvider{
		account: accountID,
		history: make(map[string][]RawEvent),
		senders: make(map[string]SenderProfile),
	}
}

// AddConversation lists a conversation. An empty name leaves it unnamed.
func (p *FakeProvider) AddConversation(id, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := ConversationSummary{ID: id}
	if name != "" {
		c.Name = stringPtr(name)
	}
	p.conversations = append(p.conversations, c)
	if _, ok := p.history[id]; !ok {
		p.history[id] = nil
	}
}

// AddHistory appends events, oldest first, to a conversation's history
func (p *FakeProvider) AddHistory(conversationID string, events ...RawEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range events {
		ev.ConversationID = conversationID
		p.history[conversationID] = append(p.history[conversationID], ev)
	}
}

// QueueSync queues events, oldest first, for the next Sync call
func (p *FakeProvider) QueueSync(events ...RawEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, events...)
}

// AddSender registers a resolvable sender profile
func (p *FakeProvider) AddSender(profile SenderProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.senders[profile.ID] = profile
}

// FailSync makes Sync return err until cleared with nil
func (p *FakeProvider) FailSync(err error) { p.setErr(&p.syncErr, err) }

// FailList makes ListConversations return err until cleared with nil
func (p *FakeProvider) FailList(err error) { p.setErr(&p.listErr, err) }

// FailFetch makes FetchHistory return err until cleared with nil
func (p *FakeProvider) FailFetch(err error) { p.setErr(&p.fetchErr, err) }

// FailResolve makes ResolveSender return err until cleared with nil
func (p *FakeProvider) FailResolve(err error) { p.setErr(&p.resolveErr, err) }

// FailDelete makes DeleteEvent return err until cleared with nil
func (p *FakeProvider) FailDelete(err error) { p.setErr(&p.deleteErr, err) }

func (p *FakeProvider) setErr(dst *error, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*dst = err
}

// OnSync installs a hook run at the start of Sync, outside the provider lock.
// A non-nil hook error is returned from Sync.
func (p *FakeProvider) OnSync(hook func(ctx context.Context) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncHook = hook
}

// OnFetch installs a hook run at the start of FetchHistory
func (p *FakeProvider) OnFetch(hook func(ctx context.Context) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchHook = hook
}

// SyncCalls returns how many times Sync was called
func (p *FakeProvider) SyncCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.syncCalls
}

// FetchCalls returns how many times FetchHistory was called
func (p *FakeProvider) FetchCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCalls
}

// ResolveCalls returns how many times ResolveSender was called
func (p *FakeProvider) ResolveCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolveCalls
}

// LastSyncCursor returns the cursor passed to the most recent Sync call
func (p *FakeProvider) LastSyncCursor() *string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastCursor == nil {
		return nil
	}
	return stringPtr(*p.lastCursor)
}

// Deleted returns the ids passed to DeleteEvent, in call order
func (p *FakeProvider) Deleted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deleted...)
}

// LoggedOut reports whether Logout was called
func (p *FakeProvider) LoggedOut() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loggedOut
}

// FailLogout makes Logout return err until cleared with nil
func (p *FakeProvider) FailLogout(err error) { p.setErr(&p.logoutErr, err) }

func (p *FakeProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.logoutErr != nil {
		return p.logoutErr
	}
	p.loggedOut = true
	return nil
}

// Closed reports whether Close was called
func (p *FakeProvider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *FakeProvider) AccountID() string {
	return p.account
}

func (p *FakeProvider) Sync(ctx context.Context, cursor *string) (SyncBatch, error) {
	p.mu.Lock()
	hook := p.syncHook
	p.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return SyncBatch{}, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncCalls++
	p.lastCursor = nil
	if cursor != nil {
		p.lastCursor = stringPtr(*cursor)
	}
	if p.syncErr != nil {
		return SyncBatch{}, p.syncErr
	}

	p.syncCount++
	events := NewestFirst(p.pending...)
	p.pending = nil
	return SyncBatch{Events: events, NextToken: fmt.Sprintf("sync-%d", p.syncCount)}, nil
}

func (p *FakeProvider) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listErr != nil {
		return nil, p.listErr
	}
	return append([]ConversationSummary(nil), p.conversations...), nil
}

// FetchHistory returns up to limit events before the cursor, newest first.
// The page that reaches the start of history still carries a cursor; the
// following call returns an empty page with none.
func (p *FakeProvider) FetchHistory(ctx context.Context, conversationID string, before *string, limit int) (HistoryPage, error) {
	p.mu.Lock()
	hook := p.fetchHook
	p.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return HistoryPage{}, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchCalls++
	if p.fetchErr != nil {
		return HistoryPage{}, p.fetchErr
	}

	history, ok := p.history[conversationID]
	if !ok {
		return HistoryPage{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	end := len(history)
	if before != nil {
		idx, ok := strings.CutPrefix(*before, "before:")
		if !ok {
			return HistoryPage{}, fmt.Errorf("bad cursor %q", *before)
		}
		if _, err := fmt.Sscanf(idx, "%d", &end); err != nil {
			return HistoryPage{}, fmt.Errorf("bad cursor %q: %w", *before, err)
		}
		end = min(end, len(history))
	}
	if end <= 0 {
		return HistoryPage{}, nil
	}

	start := max(0, end-limit)
	return HistoryPage{
		Events:     NewestFirst(history[start:end]...),
		NextCursor: stringPtr(fmt.Sprintf("before:%d", start)),
	}, nil
}

func (p *FakeProvider) ResolveSender(ctx context.Context, conversationID, senderID string) (SenderProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolveCalls++
	if p.resolveErr != nil {
		return SenderProfile{}, p.resolveErr
	}
	profile, ok := p.senders[senderID]
	if !ok {
		return SenderProfile{}, fmt.Errorf("unknown sender %s", senderID)
	}
	return profile, nil
}

func (p *FakeProvider) DeleteEvent(ctx context.Context, conversationID, eventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	history := p.history[conversationID]
	for i, ev := range history {
		if ev.ID == eventID {
			p.history[conversationID] = append(history[:i:i], history[i+1:]...)
			break
		}
	}
	p.deleted = append(p.deleted, eventID)
	return nil
}

func (p *FakeProvider) UserSession() ([]byte, error) {
	return fakeUserSession(p.account), nil
}

func (p *FakeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// FakeAuthenticator logs in to FakeProviders by username and password
type FakeAuthenticator struct {
	mu        sync.Mutex
	passwords map[string]string
	providers map[string]*FakeProvider
	resumeErr error
}

// NewFakeAuthenticator creates an authenticator with no accounts
func NewFakeAuthenticator() *FakeAuthenticator {
	return &FakeAuthenticator{
		passwords: make(map[string]string),
		providers: make(map[string]*FakeProvider),
	}
}

// AddAccount registers an account and returns the provider it resumes to
func (a *FakeAuthenticator) AddAccount(username, password string) *FakeProvider {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.passwords[username] = password
	p, ok := a.providers[username]
	if !ok {
		p = NewFakeProvider(username)
		a.providers[username] = p
	}
	return p
}

// Provider returns the provider of an account, if registered
func (a *FakeAuthenticator) Provider(username string) *FakeProvider {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.providers[username]
}

// FailResume makes Resume return err until cleared with nil
func (a *FakeAuthenticator) FailResume(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resumeErr = err
}

func (a *FakeAuthenticator) Kind() string {
	return FakeProviderKind
}

func (a *FakeAuthenticator) Authenticate(ctx context.Context, creds Credentials, cs ClientSession) (*Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	want, ok := a.passwords[creds.Username]
	if !ok || want != creds.Password {
		return nil, fmt.Errorf("%w: bad credentials for %s", ErrAuthenticationFailed, creds.Username)
	}
	return &Session{
		ProviderKind: FakeProviderKind,
		AccountID:    creds.Username,
		Client:       cs,
		User:         fakeUserSession(creds.Username),
	}, nil
}

func (a *FakeAuthenticator) Resume(ctx context.Context, session *Session) (Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resumeErr != nil {
		return nil, a.resumeErr
	}

	var user struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(session.User, &user); err != nil || user.Token != "tok-"+session.AccountID {
		return nil, ErrSessionExpired
	}

	p, ok := a.providers[session.AccountID]
	if !ok {
		p = NewFakeProvider(session.AccountID)
		a.providers[session.AccountID] = p
	}
	return p, nil
}

var errFakeTransient = errors.New("connection reset")

// TransientError returns an error wrapping ErrTransientNetwork
func TransientError() error {
	return fmt.Errorf("%w: %v", ErrTransientNetwork, errFakeTransient)
}
