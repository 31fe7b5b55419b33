package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/iksnae/chat-timeline/internal/provider/relay"
	"github.com/spf13/cobra"
)

var accountKey string

// authenticators builds the provider set from the config. Tests swap it for
// in-memory fakes.
var authenticators = func(cfg *internal.Config) []internal.Authenticator {
	return relay.FromConfig(cfg.Providers)
}

// env holds the resolved paths and config of one invocation
type env struct {
	paths internal.AppPaths
	cfg   *internal.Config
}

func loadEnv() (*env, error) {
	var paths internal.AppPaths
	if dataDir != "" {
		paths = internal.PathsUnder(dataDir)
	} else {
		detected, err := internal.DetectAppPaths()
		if err != nil {
			return nil, fmt.Errorf("failed to detect app paths: %w", err)
		}
		paths = detected
	}

	path := configPath
	if path == "" {
		path = paths.ConfigPath()
	}
	cfg, err := internal.LoadConfig(path, paths)
	if err != nil {
		return nil, err
	}

	internal.SetLogLevel(internal.ParseLogLevel(cfg.LogLevel))
	if verbose {
		internal.SetVerbose(true)
	}
	return &env{paths: paths, cfg: cfg}, nil
}

// app is the wired engine for commands that talk to providers
type app struct {
	*env
	store    *internal.SQLiteSessionStore
	cache    *internal.CacheManager
	registry *internal.Registry
	loader   *internal.Loader
	progress *internal.Progress
}

func openApp(cmd *cobra.Command) (*app, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, err
	}

	store, err := internal.OpenSessionStore(e.cfg.SessionDB)
	if err != nil {
		return nil, err
	}

	cache := internal.NewCacheManager(e.cfg.CacheDir)
	if err := cache.EnsureCacheDir(); err != nil {
		internal.LogWarn("Conversation index disabled: %v", err)
		cache = nil
	}

	registry := internal.NewRegistry()
	registry.SetConcurrency(e.cfg.SyncConcurrency)

	return &app{
		env:      e,
		store:    store,
		cache:    cache,
		registry: registry,
		loader: &internal.Loader{
			Providers: internal.NewProviders(authenticators(e.cfg)...),
			Store:     store,
			Registry:  registry,
			Options:   internal.ClientOptions{PageSize: e.cfg.PageSize, Store: store, Cache: cache},
			DataRoot:  e.cfg.DataDir,
		},
		progress: internal.NewProgress(cmd.ErrOrStderr()),
	}, nil
}

// Close saves and closes every client, then closes the session store
func (a *app) Close() {
	if err := a.registry.SaveAll(context.Background()); err != nil {
		internal.LogWarn("Failed to save sessions on exit: %v", err)
	}
	if err := a.registry.CloseAll(); err != nil {
		internal.LogWarn("Failed to close clients: %v", err)
	}
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close session store: %v", err)
	}
}

// restoreAll resumes every stored session
func (a *app) restoreAll(ctx context.Context) error {
	var report internal.RestoreReport
	err := a.progress.Run(ctx, "Restoring sessions", func(ctx context.Context) error {
		var err error
		report, err = a.loader.RestoreClients(ctx)
		return err
	})
	if err != nil {
		return err
	}
	for key, reason := range report.Skipped {
		a.progress.Warn(fmt.Sprintf("Skipped %s: %v", key, reason))
	}
	if len(report.Restored) == 0 {
		return errors.New("no usable sessions - log in with `chat-timeline login <provider>`")
	}
	return nil
}

// client returns the client named by --account, or the active one after
// restoring every session when no account is given.
func (a *app) client(ctx context.Context) (internal.ChatClient, error) {
	if accountKey == "" {
		if err := a.restoreAll(ctx); err != nil {
			return nil, err
		}
		_, c, ok := a.registry.Active()
		if !ok {
			return nil, errors.New("no active account")
		}
		return c, nil
	}

	var h internal.Handle
	err := a.progress.Run(ctx, "Restoring "+accountKey, func(ctx context.Context) error {
		var err error
		h, err = a.loader.Restore(ctx, accountKey)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", accountKey, err)
	}
	return a.registry.Get(h)
}

// openConversation selects conversationID and pages in up to pages pages of
// history (at least one).
func (a *app) openConversation(ctx context.Context, c internal.ChatClient, conversationID string, pages int) error {
	err := a.progress.Run(ctx, "Loading "+conversationID, func(ctx context.Context) error {
		if err := c.SelectConversation(ctx, conversationID); err != nil {
			return err
		}
		for i := 1; i < pages; i++ {
			page, err := c.LoadMoreHistory(ctx)
			if err != nil {
				return err
			}
			if page.Exhausted {
				break
			}
		}
		return nil
	})
	return err
}

func addAccountFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&accountKey, "account", "a", "", "Account key, e.g. matrix-@alice:example.org (default: first stored account)")
}
