package internal

import (
	"context"
	"sync"
)

// ConversationLister is the part of a Provider the cache refreshes from
type ConversationLister interface {
	ListConversations(ctx context.Context) ([]ConversationSummary, error)
}

// ConversationCache holds the last fetched conversation list of a client.
// A refresh replaces the list as a whole or not at all.
type ConversationCache struct {
	mu          sync.RWMutex
	list      []ConversationSummary
	started   uint64 // refreshes begun
	committed uint64 // sequence of the refresh that produced list
}

// NewConversationCache creates an empty cache
func NewConversationCache() *ConversationCache {
	return &ConversationCache{}
}

// Refresh fetches the conversation list and replaces the cached one. On
// error the previous list is kept. When two refreshes overlap, the one that
// started last wins.
func (c *ConversationCache) Refresh(ctx context.Context, lister ConversationLister) ([]ConversationSummary, error) {
	c.mu.Lock()
	c.started++
	seq := c.started
	c.mu.Unlock()

	list, err := lister.ListConversations(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.committed {
		LogDebug("Dropping conversation list from superseded refresh %d", seq)
		return cloneSummaries(c.list), nil
	}
	c.list = cloneSummaries(list)
	c.committed = seq
	return cloneSummaries(c.list), nil
}

// Restore seeds the cache, e.g. from the on-disk index, without a network
// call. It is ignored once a refresh has succeeded.
func (c *ConversationCache) Restore(list []ConversationSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.committed > 0 {
		return
	}
	c.list = cloneSummaries(list)
}

// List returns a copy of the cached conversations
func (c *ConversationCache) List() []ConversationSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSummaries(c.list)
}

// Find returns the cached conversation with the given id
func (c *ConversationCache) Find(id string) (ConversationSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, conv := range c.list {
		if conv.ID == id {
			return conv, true
		}
	}
	return ConversationSummary{}, false
}

// Len returns the number of cached conversations
func (c *ConversationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.list)
}

func cloneSummaries(list []ConversationSummary) []ConversationSummary {
	if list == nil {
		return nil
	}
	out := make([]ConversationSummary, len(list))
	for i, conv := range list {
		out[i] = conv
		if conv.Name != nil {
			out[i].Name = stringPtr(*conv.Name)
		}
		if conv.Avatar != nil {
			out[i].Avatar = append([]byte(nil), conv.Avatar...)
		}
	}
	return out
}
