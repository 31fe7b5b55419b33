package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Handle is a stable identifier of a registered client
type Handle string

// DefaultSyncConcurrency bounds how many clients SyncAll syncs at once
const DefaultSyncConcurrency = 4

// Registry owns the connected clients. Clients live in an arena keyed by
// handle; the first registered client becomes active.
type Registry struct {
	mu          sync.RWMutex
	clients     map[Handle]ChatClient
	order       []Handle
	active      Handle
	concurrency int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		clients:     make(map[Handle]ChatClient),
		concurrency: DefaultSyncConcurrency,
	}
}

// SetConcurrency bounds the number of parallel syncs in SyncAll
func (r *Registry) SetConcurrency(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 {
		n = 1
	}
	r.concurrency = n
}

// Register adds a client and returns its handle
func (r *Registry) Register(client ChatClient) Handle {
	h := Handle(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[h] = client
	r.order = append(r.order, h)
	if r.active == "" {
		r.active = h
	}
	LogDebug("Registered client %s as %s", client.Key(), h)
	return h
}

// Get returns the client behind a handle
func (r *Registry) Get(h Handle) (ChatClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, h)
	}
	return c, nil
}

// Active returns the active client, if any
func (r *Registry) Active() (Handle, ChatClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return "", nil, false
	}
	return r.active, r.clients[r.active], true
}

// SetActive makes h the active client
func (r *Registry) SetActive(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[h]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClient, h)
	}
	r.active = h
	return nil
}

// Handles returns the handles in registration order
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Handle(nil), r.order...)
}

// Len returns the number of registered clients
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// FindByKey returns the handle of the client with the given session key
func (r *Registry) FindByKey(key string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.order {
		if r.clients[h].Key() == key {
			return h, true
		}
	}
	return "", false
}

// Remove unregisters a client and returns it; the caller closes it. If it
// was active, the next client in order becomes active.
func (r *Registry) Remove(h Handle) (ChatClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, h)
	}
	delete(r.clients, h)
	for i, oh := range r.order {
		if oh == h {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	if r.active == h {
		r.active = ""
		if len(r.order) > 0 {
			r.active = r.order[0]
		}
	}
	return c, nil
}

// SelectConversation selects a conversation on the client behind h
func (r *Registry) SelectConversation(ctx context.Context, h Handle, conversationID string) error {
	c, err := r.Get(h)
	if err != nil {
		return err
	}
	return c.SelectConversation(ctx, conversationID)
}

// snapshot returns the clients in registration order
func (r *Registry) snapshot() ([]Handle, []ChatClient, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handles := append([]Handle(nil), r.order...)
	clients := make([]ChatClient, len(handles))
	for i, h := range handles {
		clients[i] = r.clients[h]
	}
	return handles, clients, r.concurrency
}

// SyncAll syncs every client concurrently. A failing client does not stop
// the others; all failures are returned joined, each prefixed with the
// client key.
func (r *Registry) SyncAll(ctx context.Context) (map[Handle]SyncReport, error) {
	handles, clients, limit := r.snapshot()

	var (
		mu      sync.Mutex
		reports = make(map[Handle]SyncReport, len(clients))
		errs    []error
	)

	var g errgroup.Group
	g.SetLimit(limit)
	for i, c := range clients {
		h := handles[i]
		g.Go(func() error {
			report, err := c.Sync(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c.Key(), err))
				return nil
			}
			reports[h] = report
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}

// SaveAll saves every client, continuing past failures. Expired sessions are
// reported like any other failure.
func (r *Registry) SaveAll(ctx context.Context) error {
	_, clients, _ := r.snapshot()
	var errs []error
	for _, c := range clients {
		if err := c.Save(ctx); err != nil {
			LogWarn("Failed to save %s: %v", c.Key(), err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Key(), err))
		}
	}
	return errors.Join(errs...)
}

// CloseAll closes and unregisters every client
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	handles := r.order
	clients := r.clients
	r.order = nil
	r.clients = make(map[Handle]ChatClient)
	r.active = ""
	r.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := clients[h].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", clients[h].Key(), err))
		}
	}
	return errors.Join(errs...)
}
