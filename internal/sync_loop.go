package internal

import (
	"context"
	"errors"
	"time"
)

// DefaultSyncInterval is the period of background syncs
const DefaultSyncInterval = 30 * time.Second

// SyncLoop syncs every client of a registry periodically
type SyncLoop struct {
	registry *Registry
	interval time.Duration
	trigger  chan struct{}

	// OnSync, if set, is called after every round
	OnSync func(reports map[Handle]SyncReport, err error)
}

// NewSyncLoop creates a loop over registry. A non-positive interval uses
// DefaultSyncInterval.
func NewSyncLoop(registry *Registry, interval time.Duration) *SyncLoop {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &SyncLoop{
		registry: registry,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a sync round now. Requests made while one is pending
// are coalesced.
func (l *SyncLoop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Run syncs once immediately and then on every tick or trigger, until ctx is
// done. It returns ctx.Err().
func (l *SyncLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.round(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.round(ctx)
		case <-l.trigger:
			l.round(ctx)
		}
	}
}

func (l *SyncLoop) round(ctx context.Context) {
	reports, err := l.registry.SyncAll(ctx)
	if err != nil && ctx.Err() == nil {
		switch {
		case onlySyncInProgress(err):
		case IsTransient(err):
			LogWarn("Background sync failed: %v", err)
		default:
			LogError("Background sync failed: %v", err)
		}
	}
	for h, r := range reports {
		if r.Accepted > 0 {
			LogDebug("Synced %s: %d new events", h, r.Accepted)
		}
	}
	if l.OnSync != nil {
		l.OnSync(reports, err)
	}
}

// onlySyncInProgress reports whether every joined error is ErrSyncInProgress
func onlySyncInProgress(err error) bool {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return errors.Is(err, ErrSyncInProgress)
	}
	for _, e := range joined.Unwrap() {
		if !errors.Is(e, ErrSyncInProgress) {
			return false
		}
	}
	return true
}
