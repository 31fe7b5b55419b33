package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/iksnae/chat-timeline/internal"
)

// Authenticator logs in to one network through its bridge
type Authenticator struct {
	kind        string
	url         string
	dialTimeout time.Duration
}

// NewAuthenticator creates an authenticator for provider kind reached at
// cfg.URL.
func NewAuthenticator(kind string, cfg internal.ProviderConfig) *Authenticator {
	return &Authenticator{kind: kind, url: cfg.URL, dialTimeout: cfg.DialTimeout}
}

// FromConfig builds one authenticator per configured provider kind
func FromConfig(providers map[string]internal.ProviderConfig) []internal.Authenticator {
	auths := make([]internal.Authenticator, 0, len(providers))
	for kind, cfg := range providers {
		auths = append(auths, NewAuthenticator(kind, cfg))
	}
	return auths
}

func (a *Authenticator) Kind() string {
	return a.kind
}

// Authenticate logs in on a short-lived connection. The bridge endpoint is
// recorded in the client session so Resume reaches the same bridge.
func (a *Authenticator) Authenticate(ctx context.Context, creds internal.Credentials, cs internal.ClientSession) (*internal.Session, error) {
	c, err := dial(ctx, a.url, a.dialTimeout)
	if err != nil {
		return nil, &internal.ProviderError{Kind: a.kind, Op: MethodAuthenticate, Err: err}
	}
	defer func() { _ = c.close() }()

	var res authenticateResult
	params := authenticateParams{Credentials: creds, DataDir: cs.DataDir, Passphrase: cs.Passphrase}
	if err := c.call(ctx, MethodAuthenticate, params, &res); err != nil {
		return nil, &internal.ProviderError{Kind: a.kind, Op: MethodAuthenticate, Err: err}
	}
	if res.AccountID == "" {
		return nil, &internal.ProviderError{
			Kind: a.kind,
			Op:   MethodAuthenticate,
			Err:  fmt.Errorf("%w: bridge returned no account id", internal.ErrAuthenticationFailed),
		}
	}

	endpoint, err := json.Marshal(endpointConfig{URL: a.url})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrSerialization, err)
	}
	cs.Config = endpoint

	return &internal.Session{
		ProviderKind: a.kind,
		AccountID:    res.AccountID,
		Client:       cs,
		User:         res.UserSession,
	}, nil
}

// Resume connects to the session's bridge and restores the login
func (a *Authenticator) Resume(ctx context.Context, session *internal.Session) (internal.Provider, error) {
	url := a.url
	if stored, ok := endpointFrom(session.Client.Config); ok {
		url = stored
	}

	p := &Provider{
		kind:        a.kind,
		url:         url,
		dialTimeout: a.dialTimeout,
		accountID:   session.AccountID,
		client:      session.Client,
		user:        session.User,
	}
	if err := p.connect(ctx); err != nil {
		return nil, &internal.ProviderError{Kind: a.kind, Op: MethodResume, Err: err}
	}
	return p, nil
}

// Provider is a resumed session on a bridge. A broken connection is
// re-dialed and resumed on the next call.
type Provider struct {
	kind        string
	url         string
	dialTimeout time.Duration
	accountID   string
	client      internal.ClientSession

	dialMu sync.Mutex // one reconnect at a time

	mu     sync.Mutex
	conn   *conn
	user   json.RawMessage
	closed bool
}

func (p *Provider) connect(ctx context.Context) error {
	c, err := dial(ctx, p.url, p.dialTimeout)
	if err != nil {
		return err
	}

	p.mu.Lock()
	user := p.user
	p.mu.Unlock()

	var res resumeResult
	params := resumeParams{
		AccountID:   p.accountID,
		UserSession: user,
		DataDir:     p.client.DataDir,
		Passphrase:  p.client.Passphrase,
	}
	if err := c.call(ctx, MethodResume, params, &res); err != nil {
		_ = c.close()
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = c.close()
		return errClosed
	}
	if len(res.UserSession) > 0 {
		p.user = res.UserSession
	}
	if p.conn != nil {
		_ = p.conn.close()
	}
	p.conn = c
	return nil
}

// current returns the installed connection if it is usable
func (p *Provider) current() (*conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errClosed
	}
	if p.conn != nil && !p.conn.isBroken() {
		return p.conn, nil
	}
	return nil, nil
}

// activeConn returns a usable connection, reconnecting if needed. Callers
// that find the connection broken at the same time share one reconnect.
func (p *Provider) activeConn(ctx context.Context) (*conn, error) {
	if c, err := p.current(); c != nil || err != nil {
		return c, err
	}

	p.dialMu.Lock()
	defer p.dialMu.Unlock()
	if c, err := p.current(); c != nil || err != nil {
		return c, err
	}

	internal.LogInfo("Reconnecting %s-%s to %s", p.kind, p.accountID, p.url)
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	c, err := p.current()
	if c == nil && err == nil {
		err = fmt.Errorf("%w: connection lost after reconnect", internal.ErrTransientNetwork)
	}
	return c, err
}

func (p *Provider) call(ctx context.Context, method string, params, out any) error {
	c, err := p.activeConn(ctx)
	if err != nil {
		return err
	}
	return c.call(ctx, method, params, out)
}

func (p *Provider) AccountID() string {
	return p.accountID
}

func (p *Provider) Sync(ctx context.Context, cursor *string) (internal.SyncBatch, error) {
	var res syncResult
	if err := p.call(ctx, MethodSync, syncParams{Cursor: cursor}, &res); err != nil {
		return internal.SyncBatch{}, err
	}
	return internal.SyncBatch{Events: res.Events, NextToken: res.NextToken}, nil
}

func (p *Provider) ListConversations(ctx context.Context) ([]internal.ConversationSummary, error) {
	var res listResult
	if err := p.call(ctx, MethodListConversations, nil, &res); err != nil {
		return nil, err
	}
	return res.Conversations, nil
}

func (p *Provider) FetchHistory(ctx context.Context, conversationID string, before *string, limit int) (internal.HistoryPage, error) {
	var res fetchResult
	params := fetchParams{ConversationID: conversationID, Before: before, Limit: limit}
	if err := p.call(ctx, MethodFetchHistory, params, &res); err != nil {
		return internal.HistoryPage{}, err
	}
	return internal.HistoryPage{Events: res.Events, NextCursor: res.NextCursor}, nil
}

func (p *Provider) ResolveSender(ctx context.Context, conversationID, senderID string) (internal.SenderProfile, error) {
	var profile internal.SenderProfile
	if err := p.call(ctx, MethodResolveSender, resolveParams{ConversationID: conversationID, SenderID: senderID}, &profile); err != nil {
		return internal.SenderProfile{}, err
	}
	return profile, nil
}

func (p *Provider) DeleteEvent(ctx context.Context, conversationID, eventID string) error {
	return p.call(ctx, MethodDeleteEvent, deleteParams{ConversationID: conversationID, EventID: eventID}, nil)
}

// UserSession returns the latest auth blob, including any refresh the
// bridge sent on resume.
func (p *Provider) UserSession() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.user...), nil
}

var _ internal.SessionEnder = (*Provider)(nil)

// Logout ends the session on the bridge
func (p *Provider) Logout(ctx context.Context) error {
	return p.call(ctx, MethodLogout, nil, nil)
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.conn == nil {
		return nil
	}
	err := p.conn.close()
	p.conn = nil
	return err
}
