package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/chat-timeline/testutil"
)

func newTestLoader(t *testing.T, auth *FakeAuthenticator) (*Loader, *SQLiteSessionStore) {
	t.Helper()
	store := newTestStore(t)
	return &Loader{
		Providers: NewProviders(auth),
		Store:     store,
		Registry:  NewRegistry(),
		Options:   ClientOptions{Store: store, PageSize: 5},
		DataRoot:  "/tmp/chat-timeline-data",
	}, store
}

func TestLoader_Login(t *testing.T) {
	ctx := context.Background()
	auth := NewFakeAuthenticator()
	p := auth.AddAccount("alice", "secret")
	p.AddConversation("room", "Room")
	l, store := newTestLoader(t, auth)

	h, client, err := l.Login(ctx, FakeProviderKind, Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if client.Key() != "fake-alice" {
		t.Errorf("Key() = %q, want fake-alice", client.Key())
	}
	if active, _, _ := l.Registry.Active(); active != h {
		t.Errorf("first login should be active")
	}

	saved, err := store.Load(ctx, "fake-alice")
	if err != nil {
		t.Fatalf("session not saved on login: %v", err)
	}
	if len(saved.Client.Passphrase) != passphraseLength {
		t.Errorf("passphrase length = %d", len(saved.Client.Passphrase))
	}
	if !strings.HasPrefix(saved.Client.DataDir, "/tmp/chat-timeline-data/") {
		t.Errorf("DataDir = %q, want a subfolder of the data root", saved.Client.DataDir)
	}
	if saved.SyncToken != nil {
		t.Errorf("new session sync token = %v, want nil", *saved.SyncToken)
	}
	if len(client.Conversations()) != 1 {
		t.Errorf("Conversations() = %v, want the list fetched on login", client.Conversations())
	}
}

func TestLoader_LoginFailures(t *testing.T) {
	ctx := context.Background()
	auth := NewFakeAuthenticator()
	auth.AddAccount("alice", "secret")
	l, store := newTestLoader(t, auth)

	_, _, err := l.Login(ctx, FakeProviderKind, Credentials{Username: "alice", Password: "wrong"})
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Login() bad password error = %v, want ErrAuthenticationFailed", err)
	}
	_, _, err = l.Login(ctx, "carrier-pigeon", Credentials{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Login() unknown kind error = %v, want ErrUnknownProvider", err)
	}

	keys, _ := store.Keys(ctx)
	if len(keys) != 0 || l.Registry.Len() != 0 {
		t.Errorf("failed logins left keys %v and %d clients", keys, l.Registry.Len())
	}
}

func TestLoader_LoginTwiceReplacesClient(t *testing.T) {
	ctx := context.Background()
	auth := NewFakeAuthenticator()
	auth.AddAccount("alice", "secret")
	l, _ := newTestLoader(t, auth)

	first, _, err := l.Login(ctx, FakeProviderKind, Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, _, err := l.Login(ctx, FakeProviderKind, Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if l.Registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Registry.Len())
	}
	if _, err := l.Registry.Get(first); !errors.Is(err, ErrUnknownClient) {
		t.Error("the first client should have been replaced")
	}
	if _, err := l.Registry.Get(second); err != nil {
		t.Errorf("Get(second) error = %v", err)
	}
}

func TestLoader_RestoreClients(t *testing.T) {
	ctx := context.Background()
	auth := NewFakeAuthenticator()
	alice := auth.AddAccount("alice", "secret")
	alice.QueueSync(CreateTestMessage("room", "s1", "bob", 1))
	auth.AddAccount("bob", "pw")
	l, store := newTestLoader(t, auth)

	for _, acct := range []string{"alice", "bob"} {
		s := CreateTestSession(FakeProviderKind, acct)
		s.SyncToken = stringPtr("sync-0")
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	expired := CreateTestSession(FakeProviderKind, "carol")
	expired.User = []byte(`{"token":"revoked"}`)
	if err := store.Save(ctx, expired); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, CreateTestSession("matrix", "dave")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	testutil.InsertSession(t, store.DB(), "fake-broken", testutil.MalformedSessionJSON)

	report, err := l.RestoreClients(ctx)
	if err != nil {
		t.Fatalf("RestoreClients() error = %v", err)
	}
	if len(report.Restored) != 2 {
		t.Errorf("restored %d clients, want 2", len(report.Restored))
	}

	wantSkipped := map[string]error{
		"fake-broken": ErrMalformedStoredSession,
		"fake-carol":  ErrSessionExpired,
		"matrix-dave": ErrUnknownProvider,
	}
	if len(report.Skipped) != len(wantSkipped) {
		t.Errorf("skipped = %v", report.Skipped)
	}
	for key, want := range wantSkipped {
		if !errors.Is(report.Skipped[key], want) {
			t.Errorf("skip reason for %s = %v, want %v", key, report.Skipped[key], want)
		}
	}

	// Only the first restored client gets the initial sync.
	if alice.SyncCalls() != 1 {
		t.Errorf("alice saw %d syncs, want 1", alice.SyncCalls())
	}
	if got := derefString(alice.LastSyncCursor()); got != "sync-0" {
		t.Errorf("restored client synced from %q, want the stored token", got)
	}
	if bob := auth.Provider("bob"); bob.SyncCalls() != 0 {
		t.Errorf("bob saw %d syncs, want 0", bob.SyncCalls())
	}

	// Restoring again does not duplicate clients.
	if _, err := l.RestoreClients(ctx); err != nil {
		t.Fatalf("second RestoreClients() error = %v", err)
	}
	if l.Registry.Len() != 2 {
		t.Errorf("Len() after second restore = %d, want 2", l.Registry.Len())
	}
}

func TestLoader_Logout(t *testing.T) {
	ctx := context.Background()
	auth := NewFakeAuthenticator()
	p := auth.AddAccount("alice", "secret")
	l, store := newTestLoader(t, auth)

	h, _, err := l.Login(ctx, FakeProviderKind, Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := l.Logout(ctx, h); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if !p.LoggedOut() {
		t.Error("session not ended on the provider")
	}
	if !p.Closed() {
		t.Error("provider not closed on logout")
	}
	if _, err := store.Load(ctx, "fake-alice"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Load() after logout error = %v, want ErrSessionNotFound", err)
	}
	if err := l.Logout(ctx, h); !errors.Is(err, ErrUnknownClient) {
		t.Errorf("second Logout() error = %v, want ErrUnknownClient", err)
	}
}

func TestLoader_LogoutRemoteFailure(t *testing.T) {
	ctx := context.Background()
	auth := NewFakeAuthenticator()
	p := auth.AddAccount("alice", "secret")
	l, store := newTestLoader(t, auth)

	h, _, err := l.Login(ctx, FakeProviderKind, Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	p.FailLogout(TransientError())

	if err := l.Logout(ctx, h); err != nil {
		t.Fatalf("Logout() error = %v, want local logout to succeed", err)
	}
	if !p.Closed() {
		t.Error("provider not closed after a failed remote logout")
	}
	if _, err := store.Load(ctx, "fake-alice"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Load() after logout error = %v, want ErrSessionNotFound", err)
	}
}

func TestLoader_Restore(t *testing.T) {
	ctx := context.Background()
	auth := NewFakeAuthenticator()
	alice := auth.AddAccount("alice", "secret")
	l, store := newTestLoader(t, auth)

	if err := store.Save(ctx, CreateTestSession(FakeProviderKind, "alice")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	h, err := l.Restore(ctx, "fake-alice")
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	again, err := l.Restore(ctx, "fake-alice")
	if err != nil || again != h {
		t.Errorf("second Restore() = %v, %v, want the existing handle", again, err)
	}
	if alice.SyncCalls() != 0 {
		t.Errorf("Restore() should not sync, saw %d calls", alice.SyncCalls())
	}

	if _, err := l.Restore(ctx, "fake-nobody"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Restore() of a missing key error = %v, want ErrSessionNotFound", err)
	}
}
