package internal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ChatClient is what the registry and the CLI need from one connected
// account.
type ChatClient interface {
	ProviderKind() string
	AccountID() string
	Key() string

	Sync(ctx context.Context) (SyncReport, error)
	Save(ctx context.Context) error
	ListConversations(ctx context.Context) ([]ConversationSummary, error)
	Conversations() []ConversationSummary
	Conversation(id string) (ConversationSummary, bool)
	SelectConversation(ctx context.Context, conversationID string) error
	Selected() (Selection, bool)
	LoadMoreHistory(ctx context.Context) (PageResult, error)
	DeleteEvent(ctx context.Context, eventID string) error
	Timeline() []EventGroup
	SyncStatus() SyncStatus
	Close() error
}

// Selection identifies the selected conversation. Generation increases with
// every selection so in-flight results can tell whether they are stale.
type Selection struct {
	ConversationID string
	Generation     uint64
}

// ClientOptions configures a Client
type ClientOptions struct {
	PageSize int
	Store    SessionStore  // nil disables persistence
	Cache    *CacheManager // nil disables the on-disk conversation index
}

// Client is a ChatClient backed by a Provider. Lock order is selMu, then mu.
// No network call is made while mu is held.
type Client struct {
	session  *Session
	provider Provider
	store    SessionStore
	cache    *CacheManager
	pageSize int

	syncMu sync.Mutex // one sync at a time

	statusMu sync.Mutex
	status   SyncStatus

	selectSeq atomic.Uint64
	selMu     sync.RWMutex
	selected  *Selection

	mu               sync.Mutex
	aggregator       *Aggregator
	syncCursor       *string
	paginationCursor *string
	historyExhausted bool
	paging           *Selection // stamp of the in-flight history fetch

	timeline      atomic.Pointer[[]EventGroup]
	profiles      *ProfileCache
	conversations *ConversationCache
}

// NewClient wraps a resumed provider and its session
func NewClient(session *Session, provider Provider, opts ClientOptions) *Client {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	c := &Client{
		session:       session,
		provider:      provider,
		store:         opts.Store,
		cache:         opts.Cache,
		pageSize:      opts.PageSize,
		aggregator:    NewAggregator(session.AccountID),
		profiles:      NewProfileCache(),
		conversations: NewConversationCache(),
	}
	if session.SyncToken != nil {
		c.syncCursor = stringPtr(*session.SyncToken)
	}
	c.publishLocked()

	if c.cache != nil {
		if list, _, err := c.cache.LoadConversations(c.Key()); err == nil {
			c.conversations.Restore(list)
		}
	}
	return c
}

func (c *Client) ProviderKind() string { return c.session.ProviderKind }

func (c *Client) AccountID() string { return c.session.AccountID }

// Key returns the session key "{provider_kind}-{account_id}"
func (c *Client) Key() string { return c.session.Key() }

// SyncCursor returns a copy of the current sync token
func (c *Client) SyncCursor() *string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.syncCursor == nil {
		return nil
	}
	return stringPtr(*c.syncCursor)
}

// Save persists the session with the current sync token and the provider's
// current auth blob.
func (c *Client) Save(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	session := *c.session
	session.SyncToken = c.SyncCursor()

	user, err := c.provider.UserSession()
	if err != nil {
		return &ProviderError{Kind: c.ProviderKind(), Op: "user_session", Err: err}
	}
	if len(user) > 0 {
		session.User = json.RawMessage(user)
	}

	return c.store.Save(ctx, &session)
}

// ListConversations fetches the conversation list and refreshes the cache.
// On failure the cached list is unchanged.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	list, err := c.conversations.Refresh(ctx, c.provider)
	if err != nil {
		return nil, &ProviderError{Kind: c.ProviderKind(), Op: "list_conversations", Err: err}
	}
	if c.cache != nil {
		if err := c.cache.SaveConversations(c.Key(), list); err != nil {
			LogWarn("Failed to write conversation index for %s: %v", c.Key(), err)
		}
	}
	return list, nil
}

// Conversations returns the cached conversation list without a network call
func (c *Client) Conversations() []ConversationSummary {
	return c.conversations.List()
}

// Logout ends the session on the provider when it supports that
func (c *Client) Logout(ctx context.Context) error {
	ender, ok := c.provider.(SessionEnder)
	if !ok {
		return nil
	}
	if err := ender.Logout(ctx); err != nil {
		return &ProviderError{Kind: c.ProviderKind(), Op: "logout", Err: err}
	}
	return nil
}

// Conversation returns a conversation from the cached list
func (c *Client) Conversation(id string) (ConversationSummary, bool) {
	return c.conversations.Find(id)
}

// Selected returns the current selection
func (c *Client) Selected() (Selection, bool) {
	c.selMu.RLock()
	defer c.selMu.RUnlock()
	if c.selected == nil {
		return Selection{}, false
	}
	return *c.selected, true
}

// isCurrent reports whether stamp is still the selection. selMu must be held.
func (c *Client) isCurrent(stamp Selection) bool {
	return c.selected != nil && *c.selected == stamp
}

// isSelected reports whether conversationID is still the selected
// conversation, whatever selection produced it. selMu must be held.
func (c *Client) isSelected(conversationID string) bool {
	return c.selected != nil && c.selected.ConversationID == conversationID
}

// SelectConversation switches the timeline to conversationID. The first page
// of history is fetched into a fresh timeline before anything is replaced,
// so a failed switch leaves the previous selection and timeline intact.
func (c *Client) SelectConversation(ctx context.Context, conversationID string) error {
	gen := c.selectSeq.Add(1)

	page, err := c.provider.FetchHistory(ctx, conversationID, nil, c.pageSize)
	if err != nil {
		return &SelectionError{
			ConversationID: conversationID,
			Err:            &ProviderError{Kind: c.ProviderKind(), Op: "fetch_history", Err: err},
		}
	}

	lookup := c.profiles.Resolve(ctx, c.provider, conversationID, page.Events)
	agg := NewAggregator(c.AccountID())
	res := agg.Fold(page.Events, Prepend, lookup)

	c.selMu.Lock()
	defer c.selMu.Unlock()
	if c.selected != nil && c.selected.Generation > gen {
		return &SelectionError{ConversationID: conversationID, Err: ErrSelectionSuperseded}
	}

	c.mu.Lock()
	c.aggregator = agg
	c.paginationCursor = page.NextCursor
	c.historyExhausted = page.NextCursor == nil
	c.selected = &Selection{ConversationID: conversationID, Generation: gen}
	c.publishLocked()
	c.mu.Unlock()

	c.profiles.Retain(conversationID)
	LogDebug("Selected %s on %s: %d events in %d groups", conversationID, c.Key(), res.Accepted, res.NewGroups)
	return nil
}

// DeleteEvent deletes an event of the selected conversation remotely, then
// removes it from the local timeline.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	stamp, ok := c.Selected()
	if !ok {
		return ErrNoConversationSelected
	}

	if err := c.provider.DeleteEvent(ctx, stamp.ConversationID, eventID); err != nil {
		return &ProviderError{Kind: c.ProviderKind(), Op: "delete_event", Err: err}
	}

	c.selMu.RLock()
	defer c.selMu.RUnlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCurrent(stamp) {
		return nil
	}
	if c.aggregator.Remove(eventID) {
		c.publishLocked()
	}
	return nil
}

// HistoryExhausted reports whether the selected conversation has no older
// history left.
func (c *Client) HistoryExhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historyExhausted
}

// SyncStatus returns the state of the last sync
func (c *Client) SyncStatus() SyncStatus {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

func (c *Client) setSyncState(state SyncState, err error) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status.State = state
	switch state {
	case SyncIdle:
		c.status.LastError = nil
		c.status.LastSync = time.Now()
	case SyncFailed:
		c.status.LastError = err
	}
}

// Close releases the provider connection
func (c *Client) Close() error {
	if err := c.provider.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return &ProviderError{Kind: c.ProviderKind(), Op: "close", Err: err}
	}
	return nil
}
