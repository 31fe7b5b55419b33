package internal

import (
	"context"
	"sync"
)

// ProfileCache memoizes resolved sender profiles per conversation. Only
// successful lookups are cached; a failed sender is retried on its next
// appearance.
type ProfileCache struct {
	mu     sync.Mutex
	byConv map[string]map[string]SenderProfile
}

// NewProfileCache creates an empty cache
func NewProfileCache() *ProfileCache {
	return &ProfileCache{byConv: make(map[string]map[string]SenderProfile)}
}

// Resolve looks up every sender of events that is not cached yet and returns
// a lookup over the profiles known for the conversation. Network calls are
// made without holding the cache lock. Failures are logged and the sender
// falls back to its raw id.
func (c *ProfileCache) Resolve(ctx context.Context, p Provider, conversationID string, events []RawEvent) ProfileLookup {
	known := make(map[string]SenderProfile)
	var missing []string

	c.mu.Lock()
	cached := c.byConv[conversationID]
	for _, ev := range events {
		if _, done := known[ev.SenderID]; done {
			continue
		}
		if profile, ok := cached[ev.SenderID]; ok {
			known[ev.SenderID] = profile
			continue
		}
		if !containsString(missing, ev.SenderID) {
			missing = append(missing, ev.SenderID)
		}
	}
	c.mu.Unlock()

	resolved := make(map[string]SenderProfile, len(missing))
	for _, senderID := range missing {
		if ctx.Err() != nil {
			break
		}
		profile, err := p.ResolveSender(ctx, conversationID, senderID)
		if err != nil {
			LogDebug("Failed to resolve sender %s in %s: %v", senderID, conversationID, err)
			continue
		}
		if profile.ID == "" {
			profile.ID = senderID
		}
		resolved[senderID] = profile
		known[senderID] = profile
	}

	if len(resolved) > 0 {
		c.mu.Lock()
		m, ok := c.byConv[conversationID]
		if !ok {
			m = make(map[string]SenderProfile)
			c.byConv[conversationID] = m
		}
		for id, profile := range resolved {
			m[id] = profile
		}
		c.mu.Unlock()
	}

	return func(senderID string) (SenderProfile, bool) {
		profile, ok := known[senderID]
		return profile, ok
	}
}

// Retain drops the profiles of every conversation except conversationID
func (c *ProfileCache) Retain(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.byConv {
		if id != conversationID {
			delete(c.byConv, id)
		}
	}
}

// Len returns the number of cached profiles for a conversation
func (c *ProfileCache) Len(conversationID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byConv[conversationID])
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
