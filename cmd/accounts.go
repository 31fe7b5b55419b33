package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/spf13/cobra"
)

// accountsCmd represents the accounts command
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List stored accounts",
	Long: `List the accounts with a stored session. This reads the local session
database only and does not contact any provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		store, err := internal.OpenSessionStore(e.cfg.SessionDB)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		ctx := cmd.Context()
		keys, err := store.Keys(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			_, _ = fmt.Fprintln(out, headerStyle.Render("No accounts - log in with `chat-timeline login <provider>`"))
			return nil
		}
		_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d account(s)", len(keys))))
		_, _ = fmt.Fprintln(out)

		cache := internal.NewCacheManager(e.cfg.CacheDir)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "KEY\tPROVIDER\tACCOUNT\tCONVERSATIONS\tLAST SAVED\tSTATUS\t")

		for _, key := range keys {
			kind, account, _ := internal.ParseSessionKey(key)

			status := successStyle.Render("ok")
			if _, err := store.Load(ctx, key); err != nil {
				status = errorStyle.Render("unreadable")
			}

			conversations := dateStyle.Render("-")
			if list, _, err := cache.LoadConversations(key); err == nil {
				conversations = countStyle.Render(fmt.Sprint(len(list)))
			}

			saved := dateStyle.Render("-")
			if at, err := store.UpdatedAt(ctx, key); err == nil && at.Unix() > 0 {
				saved = dateStyle.Render(formatRelative(at))
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", key, kind, account, conversations, saved, status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}
