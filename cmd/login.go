package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
	loginServer   string

	logoutAll bool
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login <provider>",
	Short: "Log in to a chat account",
	Long: `Log in to an account on one of the configured providers and keep the
session for later runs. The password is read from stdin when --password is
not given.

Examples:
  chat-timeline login matrix -u @alice:example.org --server https://example.org
  echo "$PASS" | chat-timeline login telegram -u +15550100`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]
		if loginUsername == "" {
			return errors.New("--username is required")
		}

		password := loginPassword
		if password == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password from stdin: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		creds := internal.Credentials{Server: loginServer, Username: loginUsername, Password: password}
		var client *internal.Client
		err = a.progress.Run(cmd.Context(), "Logging in to "+kind, func(ctx context.Context) error {
			var err error
			_, client, err = a.loader.Login(ctx, kind, creds)
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, successStyle.Render("Logged in as "+client.Key()))
		_, _ = fmt.Fprintf(out, "%s conversation(s)\n", countStyle.Render(fmt.Sprint(len(client.Conversations()))))
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <account>",
	Short: "Log out and forget a stored session",
	Long: `Log out of one account and forget its stored session.

With --all every stored account is logged out and the whole conversation
index is removed.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if logoutAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if !logoutAll {
			if err := logout(ctx, a, args[0]); err != nil {
				return err
			}
			if a.cache != nil {
				if err := a.cache.ClearCache(args[0]); err != nil {
					internal.LogWarn("Failed to clear conversation index: %v", err)
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out "+args[0])
			return nil
		}

		keys, err := a.store.Keys(ctx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := logout(ctx, a, key); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out "+key)
		}
		if a.cache != nil {
			if err := a.cache.ClearAll(); err != nil {
				internal.LogWarn("Failed to clear conversation indexes: %v", err)
			}
		}
		if len(keys) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No accounts to log out")
		}
		return nil
	},
}

// logout ends the session of key. Sessions that no longer resume are
// forgotten locally.
func logout(ctx context.Context, a *app, key string) error {
	h, err := a.loader.Restore(ctx, key)
	if err != nil {
		if errors.Is(err, internal.ErrSessionNotFound) {
			return fmt.Errorf("no stored session %s", key)
		}
		internal.LogWarn("Could not resume %s, removing it locally: %v", key, err)
		return a.store.Delete(ctx, key)
	}
	return a.loader.Logout(ctx, h)
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Account user name or phone number")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (read from stdin when empty)")
	loginCmd.Flags().StringVar(&loginServer, "server", "", "Home server, for providers that need one")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Log out of every stored account")
}
