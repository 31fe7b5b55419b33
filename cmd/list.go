package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/spf13/cobra"
)

var (
	listOffline bool
	listMaxAge  time.Duration
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Long: `List the conversations of one account, or of every stored account.

With --offline the list comes from the conversation index written by the
last successful refresh and no provider is contacted. With --max-age the
index is used when every listed account refreshed it within that age.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listOffline || (listMaxAge > 0 && indexFresh(cmd, listMaxAge)) {
			return listFromIndex(cmd)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		var clients []internal.ChatClient
		if accountKey != "" {
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			clients = append(clients, c)
		} else {
			if err := a.restoreAll(ctx); err != nil {
				return err
			}
			for _, h := range a.registry.Handles() {
				c, err := a.registry.Get(h)
				if err == nil {
					clients = append(clients, c)
				}
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for i, c := range clients {
			var list []internal.ConversationSummary
			err := a.progress.Run(ctx, "Fetching conversations for "+c.Key(), func(ctx context.Context) error {
				var err error
				list, err = c.ListConversations(ctx)
				return err
			})
			if err != nil {
				failed++
				a.progress.Warn(fmt.Sprintf("%s: %v", c.Key(), err))
				continue
			}
			if i > 0 {
				_, _ = fmt.Fprintln(out)
			}
			if err := renderConversations(out, c.Key(), list, time.Time{}); err != nil {
				return err
			}
		}
		if failed == len(clients) {
			return fmt.Errorf("failed to list conversations for %d account(s)", failed)
		}
		return nil
	},
}

func listFromIndex(cmd *cobra.Command) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	keys, err := indexKeys(cmd.Context(), e)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cache := internal.NewCacheManager(e.cfg.CacheDir)
	for i, key := range keys {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		list, refreshed, err := cache.LoadConversations(key)
		if err != nil {
			internal.LogDebug("No index for %s: %v", key, err)
			_, _ = fmt.Fprintln(out, warningStyle.Render("No cached conversations for "+key))
			continue
		}
		if err := renderConversations(out, key, list, refreshed); err != nil {
			return err
		}
	}
	return nil
}

// indexKeys returns the account selected with --account, or every stored one
func indexKeys(ctx context.Context, e *env) ([]string, error) {
	if accountKey != "" {
		return []string{accountKey}, nil
	}
	store, err := internal.OpenSessionStore(e.cfg.SessionDB)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.Keys(ctx)
}

// indexFresh reports whether the conversation index of every listed account
// is younger than maxAge.
func indexFresh(cmd *cobra.Command, maxAge time.Duration) bool {
	e, err := loadEnv()
	if err != nil {
		return false
	}
	keys, err := indexKeys(cmd.Context(), e)
	if err != nil || len(keys) == 0 {
		return false
	}
	cache := internal.NewCacheManager(e.cfg.CacheDir)
	for _, key := range keys {
		if !cache.IsFresh(key, maxAge) {
			internal.LogDebug("Conversation index of %s is older than %s", key, maxAge)
			return false
		}
	}
	return true
}

func init() {
	rootCmd.AddCommand(listCmd)
	addAccountFlag(listCmd)
	listCmd.Flags().BoolVar(&listOffline, "offline", false, "Read the conversation index instead of contacting providers")
	listCmd.Flags().DurationVar(&listMaxAge, "max-age", 0, "Use the conversation index when it is younger than this")
}
