package internal

import (
	"context"
	"time"
)

// SyncState is the sync state machine of a client:
// Idle -> Syncing -> Idle, or Syncing -> Failed. A failed client goes back
// through Syncing on the next attempt; there is no automatic retry.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncSyncing
	SyncFailed
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncSyncing:
		return "syncing"
	case SyncFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SyncStatus is the observable sync state of a client
type SyncStatus struct {
	State     SyncState
	LastError error     // set while Failed
	LastSync  time.Time // last successful sync
}

// SyncReport summarizes one successful sync
type SyncReport struct {
	FoldResult
	Received  int // events returned by the provider
	Discarded int // events for conversations other than the selected one
	Stale     int // events dropped because another conversation was selected mid-sync
}

// Sync fetches events since the stored cursor and appends those of the
// selected conversation to the timeline. Only one sync runs per client; a
// concurrent call returns ErrSyncInProgress. On failure the cursor is left
// unchanged. After a successful sync the session is saved and the
// conversation list refreshed; failures there are logged only.
func (c *Client) Sync(ctx context.Context) (SyncReport, error) {
	if !c.syncMu.TryLock() {
		return SyncReport{}, ErrSyncInProgress
	}
	defer c.syncMu.Unlock()

	c.setSyncState(SyncSyncing, nil)
	cursor := c.SyncCursor()
	stamp, selected := c.Selected()

	batch, err := c.provider.Sync(ctx, cursor)
	if err != nil {
		err = &ProviderError{Kind: c.ProviderKind(), Op: "sync", Err: err}
		c.setSyncState(SyncFailed, err)
		return SyncReport{}, err
	}

	report := SyncReport{Received: len(batch.Events)}
	var relevant []RawEvent
	for _, ev := range batch.Events {
		if selected && ev.ConversationID == stamp.ConversationID {
			relevant = append(relevant, ev)
		} else {
			report.Discarded++
		}
	}

	var lookup ProfileLookup
	if len(relevant) > 0 {
		lookup = c.profiles.Resolve(ctx, c.provider, stamp.ConversationID, relevant)
	}

	c.selMu.RLock()
	c.mu.Lock()
	if batch.NextToken != "" {
		c.syncCursor = stringPtr(batch.NextToken)
	}
	if len(relevant) > 0 {
		// A re-select of the same conversation keeps the events; the new
		// aggregator drops any overlap with its first page.
		if c.isSelected(stamp.ConversationID) {
			report.FoldResult = c.aggregator.Fold(relevant, Append, lookup)
			c.publishLocked()
		} else {
			report.Stale = len(relevant)
		}
	}
	c.mu.Unlock()
	c.selMu.RUnlock()

	if report.Discarded > 0 {
		LogDebug("Sync of %s discarded %d events outside the selected conversation", c.Key(), report.Discarded)
	}
	c.setSyncState(SyncIdle, nil)

	if err := c.Save(ctx); err != nil {
		LogWarn("Failed to save session %s: %v", c.Key(), err)
	}
	if _, err := c.ListConversations(ctx); err != nil {
		LogWarn("Failed to refresh conversations for %s: %v", c.Key(), err)
	}

	return report, nil
}
