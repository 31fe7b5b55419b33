package internal

import (
	"context"
	"errors"
	"fmt"
)

// Loader builds clients from stored sessions and new logins
type Loader struct {
	Providers *Providers
	Store     SessionStore
	Registry  *Registry
	Options   ClientOptions
	DataRoot  string // parent of per-session data directories
}

// RestoreReport lists what RestoreClients did with each stored key
type RestoreReport struct {
	Restored []Handle
	Skipped  map[string]error // key -> reason
}

// RestoreClients resumes every stored session and registers a client for it.
// Malformed, expired or unknown-provider sessions are skipped with a warning.
// The first restored client is synced and its conversations fetched.
func (l *Loader) RestoreClients(ctx context.Context) (RestoreReport, error) {
	report := RestoreReport{Skipped: make(map[string]error)}

	keys, err := l.Store.Keys(ctx)
	if err != nil {
		return report, err
	}

	for _, key := range keys {
		if _, exists := l.Registry.FindByKey(key); exists {
			continue
		}
		h, err := l.resume(ctx, key)
		if err != nil {
			LogWarn("Skipping stored session %s: %v", key, err)
			report.Skipped[key] = err
			continue
		}
		report.Restored = append(report.Restored, h)
	}

	if len(report.Restored) > 0 {
		first, err := l.Registry.Get(report.Restored[0])
		if err == nil {
			if _, err := first.Sync(ctx); err != nil {
				LogWarn("Initial sync of %s failed: %v", first.Key(), err)
			}
		}
	}

	LogInfo("Restored %d of %d stored sessions", len(report.Restored), len(keys))
	return report, nil
}

// Restore resumes one stored session and registers it. A key that is already
// registered returns the existing handle without touching the network.
func (l *Loader) Restore(ctx context.Context, key string) (Handle, error) {
	if h, exists := l.Registry.FindByKey(key); exists {
		return h, nil
	}
	return l.resume(ctx, key)
}

func (l *Loader) resume(ctx context.Context, key string) (Handle, error) {
	session, err := l.Store.Load(ctx, key)
	if err != nil {
		return "", err
	}

	auth, err := l.Providers.Get(session.ProviderKind)
	if err != nil {
		return "", err
	}

	provider, err := auth.Resume(ctx, session)
	if err != nil {
		return "", err
	}

	client := NewClient(session, provider, l.Options)
	return l.Registry.Register(client), nil
}

// Login authenticates a new account, saves its session right away,
// fetches its conversations and registers it. Logging in to an account that
// is already registered replaces the old client.
func (l *Loader) Login(ctx context.Context, kind string, creds Credentials) (Handle, *Client, error) {
	auth, err := l.Providers.Get(kind)
	if err != nil {
		return "", nil, err
	}

	cs, err := NewClientSession(l.DataRoot, nil)
	if err != nil {
		return "", nil, fmt.Errorf("create client session: %w", err)
	}

	session, err := auth.Authenticate(ctx, creds, cs)
	if err != nil {
		return "", nil, err
	}

	provider, err := auth.Resume(ctx, session)
	if err != nil {
		return "", nil, err
	}

	client := NewClient(session, provider, l.Options)
	if err := client.Save(ctx); err != nil {
		LogWarn("Failed to save new session %s: %v", client.Key(), err)
	}
	if _, err := client.ListConversations(ctx); err != nil {
		LogWarn("Failed to fetch conversations for %s: %v", client.Key(), err)
	}

	if old, exists := l.Registry.FindByKey(client.Key()); exists {
		if prev, err := l.Registry.Remove(old); err == nil {
			_ = prev.Close()
		}
	}
	return l.Registry.Register(client), client, nil
}

// Logout unregisters the client, ends its session on the provider, closes it
// and deletes its stored session. A failed remote logout is logged only.
func (l *Loader) Logout(ctx context.Context, h Handle) error {
	client, err := l.Registry.Remove(h)
	if err != nil {
		return err
	}
	if ender, ok := client.(SessionEnder); ok {
		if err := ender.Logout(ctx); err != nil {
			LogWarn("Remote logout of %s failed: %v", client.Key(), err)
		}
	}
	closeErr := client.Close()
	if err := l.Store.Delete(ctx, client.Key()); err != nil {
		return errors.Join(err, closeErr)
	}
	return closeErr
}
