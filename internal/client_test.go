package internal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iksnae/chat-timeline/testutil"
)

// newRoomProvider returns a provider for "me" with a five-event "room"
// conversation and a two-event "dm" conversation.
func newRoomProvider() *FakeProvider {
	p := NewFakeProvider("me")
	p.AddConversation("room", "Room")
	p.AddConversation("dm", "")
	p.AddHistory("room",
		CreateTestRawEvent("e1", "A", 1),
		CreateTestRawEvent("e2", "A", 2),
		CreateTestRawEvent("e3", "B", 3),
		CreateTestRawEvent("e4", "me", 4),
		CreateTestRawEvent("e5", "me", 5),
	)
	p.AddHistory("dm",
		CreateTestRawEvent("d1", "C", 1),
		CreateTestRawEvent("d2", "me", 2),
	)
	return p
}

func newTestClient(t *testing.T, p *FakeProvider, opts ClientOptions) *Client {
	t.Helper()
	return NewClient(CreateTestSession(FakeProviderKind, p.AccountID()), p, opts)
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func mustSelect(t *testing.T, c *Client, conversationID string) {
	t.Helper()
	if err := c.SelectConversation(context.Background(), conversationID); err != nil {
		t.Fatalf("SelectConversation(%s) error = %v", conversationID, err)
	}
}

func TestClient_SelectConversationLoadsFirstPage(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})

	mustSelect(t, c, "room")

	sel, ok := c.Selected()
	if !ok || sel.ConversationID != "room" {
		t.Fatalf("Selected() = %+v, %v; want room", sel, ok)
	}
	timeline := c.Timeline()
	assertShape(t, timeline, []groupShape{
		{"B", []string{"e3"}},
		{"me", []string{"e4", "e5"}},
	})
	if !timeline[1].IsSelf || timeline[0].IsSelf {
		t.Errorf("IsSelf = %v/%v, want false/true", timeline[0].IsSelf, timeline[1].IsSelf)
	}
	if c.HistoryExhausted() {
		t.Error("history should not be exhausted after the first page")
	}
}

func TestClient_PaginationOrderAndExhaustion(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})
	mustSelect(t, c, "room")

	res, err := c.LoadMoreHistory(ctx)
	if err != nil {
		t.Fatalf("LoadMoreHistory() error = %v", err)
	}
	if res.Accepted != 2 || res.Exhausted {
		t.Errorf("LoadMoreHistory() = %+v, want 2 accepted, not exhausted", res)
	}
	assertShape(t, c.Timeline(), []groupShape{
		{"A", []string{"e1", "e2"}},
		{"B", []string{"e3"}},
		{"me", []string{"e4", "e5"}},
	})

	res, err = c.LoadMoreHistory(ctx)
	if err != nil {
		t.Fatalf("LoadMoreHistory() error = %v", err)
	}
	if !res.Exhausted || res.Accepted != 0 {
		t.Errorf("LoadMoreHistory() at the start = %+v, want exhausted", res)
	}

	calls := p.FetchCalls()
	res, err = c.LoadMoreHistory(ctx)
	if err != nil || !res.Exhausted {
		t.Errorf("LoadMoreHistory() after exhaustion = %+v, %v", res, err)
	}
	if p.FetchCalls() != calls {
		t.Error("LoadMoreHistory() after exhaustion made a network call")
	}

	// Every event in chronological order, no duplicates.
	var ids []string
	for _, g := range c.Timeline() {
		for _, e := range g.Events {
			ids = append(ids, e.ID)
		}
	}
	want := []string{"e1", "e2", "e3", "e4", "e5"}
	if len(ids) != len(want) {
		t.Fatalf("timeline ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("timeline ids = %v, want %v", ids, want)
		}
	}
}

func TestClient_LoadMoreWithoutSelection(t *testing.T) {
	c := newTestClient(t, newRoomProvider(), ClientOptions{})
	if _, err := c.LoadMoreHistory(context.Background()); !errors.Is(err, ErrNoConversationSelected) {
		t.Errorf("LoadMoreHistory() error = %v, want ErrNoConversationSelected", err)
	}
}

func TestClient_SelectionResetsTimeline(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})

	mustSelect(t, c, "room")
	if _, err := c.LoadMoreHistory(ctx); err != nil {
		t.Fatalf("LoadMoreHistory() error = %v", err)
	}

	mustSelect(t, c, "dm")
	assertShape(t, c.Timeline(), []groupShape{
		{"C", []string{"d1"}},
		{"me", []string{"d2"}},
	})
	if got := derefString(c.paginationCursor); got != "before:0" {
		t.Errorf("pagination cursor = %q, want the cursor of the dm page", got)
	}

	// Going back starts from a fresh dedup set and cursor.
	mustSelect(t, c, "room")
	assertShape(t, c.Timeline(), []groupShape{
		{"B", []string{"e3"}},
		{"me", []string{"e4", "e5"}},
	})
	if c.HistoryExhausted() {
		t.Error("reselecting should reset exhaustion")
	}
}

func TestClient_FailedSelectionKeepsPrevious(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})
	mustSelect(t, c, "room")
	before := c.Timeline()

	p.FailFetch(TransientError())
	err := c.SelectConversation(context.Background(), "dm")
	var selErr *SelectionError
	if !errors.As(err, &selErr) || selErr.ConversationID != "dm" {
		t.Fatalf("SelectConversation() error = %v, want SelectionError for dm", err)
	}
	if !errors.Is(err, ErrTransientNetwork) {
		t.Errorf("SelectConversation() error = %v, want it to wrap ErrTransientNetwork", err)
	}

	sel, _ := c.Selected()
	if sel.ConversationID != "room" {
		t.Errorf("Selected() = %q after a failed switch, want room", sel.ConversationID)
	}
	assertShape(t, c.Timeline(), shapeOf(before))
}

func TestClient_SelectUnknownConversation(t *testing.T) {
	c := newTestClient(t, newRoomProvider(), ClientOptions{})
	err := c.SelectConversation(context.Background(), "nowhere")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("SelectConversation() error = %v, want ErrConversationNotFound", err)
	}
	if _, ok := c.Selected(); ok {
		t.Error("a failed first selection should leave nothing selected")
	}
}

func TestClient_SyncAppendsSelectedConversation(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})
	mustSelect(t, c, "room")

	p.QueueSync(
		CreateTestMessage("room", "s1", "me", 10),
		CreateTestMessage("elsewhere", "x1", "B", 11),
		CreateTestMessage("room", "s2", "B", 12),
	)
	report, err := c.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if report.Received != 3 || report.Discarded != 1 || report.Accepted != 2 || report.NewGroups != 1 {
		t.Errorf("Sync() report = %+v", report)
	}
	assertShape(t, c.Timeline(), []groupShape{
		{"B", []string{"e3"}},
		{"me", []string{"e4", "e5", "s1"}},
		{"B", []string{"s2"}},
	})
	if got := derefString(c.SyncCursor()); got != "sync-1" {
		t.Errorf("SyncCursor() = %q, want sync-1", got)
	}
	if status := c.SyncStatus(); status.State != SyncIdle || status.LastSync.IsZero() {
		t.Errorf("SyncStatus() = %+v, want idle with a sync time", status)
	}
	if len(c.Conversations()) != 2 {
		t.Errorf("Conversations() = %v, want the list refreshed after sync", c.Conversations())
	}
}

func TestClient_SyncWithoutSelectionAdvancesCursor(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{})
	p.QueueSync(CreateTestMessage("room", "s1", "A", 10))

	report, err := c.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if report.Discarded != 1 || report.Accepted != 0 {
		t.Errorf("Sync() report = %+v, want the event discarded", report)
	}
	if derefString(c.SyncCursor()) != "sync-1" {
		t.Errorf("SyncCursor() = %v, want sync-1", c.SyncCursor())
	}
	if len(c.Timeline()) != 0 {
		t.Errorf("Timeline() = %v, want empty", c.Timeline())
	}
}

func TestClient_SyncFailureLeavesCursor(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{})

	if _, err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	p.FailSync(TransientError())
	_, err := c.Sync(ctx)
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Op != "sync" || perr.Kind != FakeProviderKind {
		t.Fatalf("Sync() error = %v, want a sync ProviderError", err)
	}
	if !IsTransient(err) {
		t.Errorf("Sync() error = %v, want transient", err)
	}
	if got := derefString(c.SyncCursor()); got != "sync-1" {
		t.Errorf("SyncCursor() after failure = %q, want sync-1", got)
	}
	status := c.SyncStatus()
	if status.State != SyncFailed || status.LastError == nil {
		t.Errorf("SyncStatus() = %+v, want failed with an error", status)
	}

	p.FailSync(nil)
	if _, err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync() after recovery error = %v", err)
	}
	if got := derefString(p.LastSyncCursor()); got != "sync-1" {
		t.Errorf("retry sent cursor %q, want sync-1", got)
	}
	if c.SyncStatus().State != SyncIdle {
		t.Errorf("SyncStatus() = %v, want idle after recovery", c.SyncStatus().State)
	}
}

func TestClient_SyncStartsFromStoredToken(t *testing.T) {
	p := newRoomProvider()
	session := CreateTestSession(FakeProviderKind, "me")
	session.SyncToken = stringPtr("sync-41")
	c := NewClient(session, p, ClientOptions{})

	if _, err := c.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if got := derefString(p.LastSyncCursor()); got != "sync-41" {
		t.Errorf("first sync cursor = %q, want the stored token", got)
	}
}

func TestClient_SyncPersistsSession(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteSessionStore(testutil.CreateInMemoryDB(t))
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{Store: store})

	if _, err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	saved, err := store.Load(ctx, "fake-me")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if derefString(saved.SyncToken) != "sync-1" {
		t.Errorf("saved sync token = %v, want sync-1", derefString(saved.SyncToken))
	}
	if string(saved.User) != `{"token":"tok-me"}` {
		t.Errorf("saved user session = %s", saved.User)
	}
}

func TestClient_ConcurrentSyncRejected(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{})

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.OnSync(func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Sync(context.Background())
		done <- err
	}()
	waitFor(t, started, "first sync")

	if _, err := c.Sync(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("second Sync() error = %v, want ErrSyncInProgress", err)
	}
	if c.SyncStatus().State != SyncSyncing {
		t.Errorf("SyncStatus() = %v during a sync, want syncing", c.SyncStatus().State)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Sync() error = %v", err)
	}
	if p.SyncCalls() != 1 {
		t.Errorf("provider saw %d sync calls, want 1", p.SyncCalls())
	}
}

func TestClient_ConcurrentPaginationRejected(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 2})
	mustSelect(t, c, "room")

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.OnFetch(func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.LoadMoreHistory(context.Background())
		done <- err
	}()
	waitFor(t, started, "first page fetch")

	if _, err := c.LoadMoreHistory(context.Background()); !errors.Is(err, ErrPaginationInFlight) {
		t.Errorf("second LoadMoreHistory() error = %v, want ErrPaginationInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first LoadMoreHistory() error = %v", err)
	}
	if _, err := c.LoadMoreHistory(context.Background()); err != nil {
		t.Errorf("LoadMoreHistory() after the first completed error = %v", err)
	}
}

func TestClient_StalePageDiscarded(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})
	mustSelect(t, c, "room")

	started := make(chan struct{})
	release := make(chan struct{})
	var blocked atomic.Bool
	p.OnFetch(func(ctx context.Context) error {
		if blocked.CompareAndSwap(false, true) {
			close(started)
			<-release
		}
		return nil
	})

	type result struct {
		res PageResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := c.LoadMoreHistory(context.Background())
		done <- result{res, err}
	}()
	waitFor(t, started, "page fetch")

	mustSelect(t, c, "dm")
	close(release)

	r := <-done
	if r.err != nil {
		t.Fatalf("LoadMoreHistory() error = %v", r.err)
	}
	if !r.res.Stale || r.res.Accepted != 0 {
		t.Errorf("LoadMoreHistory() = %+v, want a stale result", r.res)
	}
	assertShape(t, c.Timeline(), []groupShape{
		{"C", []string{"d1"}},
		{"me", []string{"d2"}},
	})
}

func TestClient_StaleSyncDiscarded(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})
	mustSelect(t, c, "room")

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.OnSync(func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})
	p.QueueSync(CreateTestMessage("room", "s1", "A", 10), CreateTestMessage("room", "s2", "A", 11))

	type result struct {
		report SyncReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := c.Sync(context.Background())
		done <- result{report, err}
	}()
	waitFor(t, started, "sync")

	mustSelect(t, c, "dm")
	close(release)

	r := <-done
	if r.err != nil {
		t.Fatalf("Sync() error = %v", r.err)
	}
	if r.report.Stale != 2 || r.report.Accepted != 0 {
		t.Errorf("Sync() report = %+v, want 2 stale events", r.report)
	}
	if derefString(c.SyncCursor()) != "sync-1" {
		t.Errorf("SyncCursor() = %v, want the token kept despite the stale events", c.SyncCursor())
	}
	assertShape(t, c.Timeline(), []groupShape{
		{"C", []string{"d1"}},
		{"me", []string{"d2"}},
	})
}

func TestClient_SyncKeptWhenSameConversationReselected(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})
	mustSelect(t, c, "room")

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.OnSync(func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})
	p.QueueSync(CreateTestMessage("room", "e5", "me", 5), CreateTestMessage("room", "s1", "A", 10))

	done := make(chan SyncReport, 1)
	go func() {
		report, err := c.Sync(context.Background())
		if err != nil {
			t.Errorf("Sync() error = %v", err)
		}
		done <- report
	}()
	waitFor(t, started, "sync")

	mustSelect(t, c, "room")
	close(release)

	r := <-done
	if r.Stale != 0 || r.Accepted != 1 || r.Duplicates != 1 {
		t.Errorf("Sync() report = %+v, want s1 accepted and e5 deduplicated", r)
	}
	assertShape(t, c.Timeline(), []groupShape{
		{"B", []string{"e3"}},
		{"me", []string{"e4", "e5"}},
		{"A", []string{"s1"}},
	})
}

func TestClient_EventIDReusedInAnotherConversation(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	p.AddConversation("other", "Other")
	p.AddHistory("other",
		CreateTestRawEvent("e4", "C", 7),
		CreateTestRawEvent("o1", "me", 8),
	)
	c := newTestClient(t, p, ClientOptions{PageSize: 3})

	mustSelect(t, c, "room")
	mustSelect(t, c, "other")
	assertShape(t, c.Timeline(), []groupShape{
		{"C", []string{"e4"}},
		{"me", []string{"o1"}},
	})

	p.QueueSync(CreateTestMessage("other", "e5", "C", 9))
	report, err := c.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if report.Accepted != 1 || report.Duplicates != 0 {
		t.Errorf("Sync() report = %+v, want e5 accepted in the new conversation", report)
	}
	assertShape(t, c.Timeline(), []groupShape{
		{"C", []string{"e4"}},
		{"me", []string{"o1"}},
		{"C", []string{"e5"}},
	})
}

func TestClient_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})

	if err := c.DeleteEvent(ctx, "e4"); !errors.Is(err, ErrNoConversationSelected) {
		t.Errorf("DeleteEvent() without selection error = %v", err)
	}

	mustSelect(t, c, "room")
	if err := c.DeleteEvent(ctx, "e4"); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	if deleted := p.Deleted(); len(deleted) != 1 || deleted[0] != "e4" {
		t.Errorf("provider deletes = %v, want [e4]", deleted)
	}
	assertShape(t, c.Timeline(), []groupShape{
		{"B", []string{"e3"}},
		{"me", []string{"e5"}},
	})

	// An overlapping sync must not bring the deleted event back.
	p.QueueSync(CreateTestMessage("room", "e4", "me", 4))
	report, err := c.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if report.Duplicates != 1 || report.Accepted != 0 {
		t.Errorf("Sync() report = %+v, want the deleted id treated as duplicate", report)
	}

	p.FailDelete(errors.New("forbidden"))
	before := shapeOf(c.Timeline())
	if err := c.DeleteEvent(ctx, "e5"); err == nil {
		t.Error("DeleteEvent() should fail when the provider refuses")
	}
	assertShape(t, c.Timeline(), before)
}

func TestClient_TimelineSnapshotIsImmutable(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})
	mustSelect(t, c, "room")

	first := c.Timeline()
	p.QueueSync(CreateTestMessage("room", "s1", "me", 10))
	if _, err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if got := len(first[len(first)-1].Events); got != 2 {
		t.Errorf("earlier snapshot changed: tail has %d events, want 2", got)
	}
	if got := CountEvents(c.Timeline()); got != 4 {
		t.Errorf("CountEvents(Timeline()) = %d, want 4", got)
	}
}

func TestClient_ReadersDuringSync(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{PageSize: 3})
	mustSelect(t, c, "room")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = CountEvents(c.Timeline())
					_, _ = c.Selected()
					_ = c.SyncStatus()
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		p.QueueSync(CreateTestMessage("room", "s"+string(rune('a'+i)), "B", int64(100+i)))
		if _, err := c.Sync(ctx); err != nil {
			t.Errorf("Sync() %d error = %v", i, err)
		}
	}
	close(stop)
	wg.Wait()

	if got := CountEvents(c.Timeline()); got != 23 {
		t.Errorf("CountEvents(Timeline()) = %d, want 23", got)
	}
}

func TestClient_ListConversationsFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{})

	if _, err := c.ListConversations(ctx); err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	p.FailList(TransientError())
	if _, err := c.ListConversations(ctx); !errors.Is(err, ErrTransientNetwork) {
		t.Errorf("ListConversations() error = %v, want ErrTransientNetwork", err)
	}
	if got := len(c.Conversations()); got != 2 {
		t.Errorf("Conversations() has %d entries after a failed refresh, want 2", got)
	}
}

func TestClient_ConversationIndexOnDisk(t *testing.T) {
	ctx := context.Background()
	cm := NewCacheManager(testutil.CreateTempDir(t))
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{Cache: cm})

	if _, err := c.ListConversations(ctx); err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}

	list, _, err := cm.LoadConversations(c.Key())
	if err != nil {
		t.Fatalf("LoadConversations() error = %v", err)
	}
	if len(list) != 2 || list[0].DisplayName() != "Room" {
		t.Errorf("cached index = %+v", list)
	}

	// A new client for the same account starts from the index.
	again := newTestClient(t, NewFakeProvider("me"), ClientOptions{Cache: cm})
	if got := len(again.Conversations()); got != 2 {
		t.Errorf("restored client has %d conversations, want 2", got)
	}
	if conv, ok := again.Conversation("room"); !ok || conv.DisplayName() != "Room" {
		t.Errorf("Conversation(room) = %+v, %v", conv, ok)
	}
	if _, ok := again.Conversation("missing"); ok {
		t.Error("Conversation(missing) should not exist")
	}
}

func TestClient_Close(t *testing.T) {
	p := newRoomProvider()
	c := newTestClient(t, p, ClientOptions{})
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !p.Closed() {
		t.Error("Close() did not close the provider")
	}
}

func TestSyncState_String(t *testing.T) {
	tests := []struct {
		state SyncState
		want  string
	}{
		{SyncIdle, "idle"},
		{SyncSyncing, "syncing"},
		{SyncFailed, "failed"},
		{SyncState(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SyncState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
