package internal

import "context"

// PageResult summarizes one LoadMoreHistory call
type PageResult struct {
	FoldResult
	Exhausted bool // no older history remains
	Stale     bool // the selection changed while the page was in flight
}

// LoadMoreHistory fetches the next page of older events for the selected
// conversation and prepends it. Once history is exhausted it returns without
// a network call. Only one fetch per selection may be in flight; a
// concurrent caller gets ErrPaginationInFlight.
func (c *Client) LoadMoreHistory(ctx context.Context) (PageResult, error) {
	stamp, ok := c.Selected()
	if !ok {
		return PageResult{}, ErrNoConversationSelected
	}

	c.mu.Lock()
	if c.historyExhausted {
		c.mu.Unlock()
		return PageResult{Exhausted: true}, nil
	}
	if c.paging != nil && *c.paging == stamp {
		c.mu.Unlock()
		return PageResult{}, ErrPaginationInFlight
	}
	var before *string
	if c.paginationCursor != nil {
		before = stringPtr(*c.paginationCursor)
	}
	c.paging = &stamp
	c.mu.Unlock()

	page, err := c.provider.FetchHistory(ctx, stamp.ConversationID, before, c.pageSize)
	if err != nil {
		c.mu.Lock()
		c.endPaging(stamp)
		c.mu.Unlock()
		return PageResult{}, &ProviderError{Kind: c.ProviderKind(), Op: "fetch_history", Err: err}
	}

	lookup := c.profiles.Resolve(ctx, c.provider, stamp.ConversationID, page.Events)

	c.selMu.RLock()
	defer c.selMu.RUnlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endPaging(stamp)

	if !c.isCurrent(stamp) {
		LogDebug("Dropping history page for %s: selection changed", stamp.ConversationID)
		return PageResult{Stale: true}, nil
	}

	res := PageResult{FoldResult: c.aggregator.Fold(page.Events, Prepend, lookup)}
	c.paginationCursor = page.NextCursor
	if page.NextCursor == nil {
		c.historyExhausted = true
		res.Exhausted = true
	}
	if res.Accepted > 0 {
		c.publishLocked()
	}
	return res, nil
}

// endPaging clears the in-flight marker if it still belongs to stamp.
// mu must be held.
func (c *Client) endPaging(stamp Selection) {
	if c.paging != nil && *c.paging == stamp {
		c.paging = nil
	}
}
