package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckOnline  bool
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that config, session database and providers are usable",
	Long: `Check the health of chat-timeline by verifying:
  • Config file and directory detection
  • Session database accessibility
  • Stored sessions decode
  • Provider configuration for every stored session
  • With --online: that every stored session resumes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		progress := internal.NewProgress(out)
		detail := func(format string, args ...any) {
			if healthcheckVerbose {
				_, _ = fmt.Fprintf(out, "   "+format+"\n", args...)
			}
		}

		_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 chat-timeline Health Check"))
		_, _ = fmt.Fprintln(out)

		var (
			e         *env
			store     *internal.SQLiteSessionStore
			usable    []*internal.Session
			providers *internal.Providers
			missing   = map[string]bool{}
			restored  = -1
		)
		defer func() {
			if store != nil {
				_ = store.Close()
			}
		}()

		steps := []internal.ProgressStep{
			{Message: "Loading configuration", Fn: func(context.Context) error {
				var err error
				if e, err = loadEnv(); err != nil {
					return err
				}
				progress.Success("Configuration loaded")
				detail("Config dir: %s", e.paths.ConfigDir)
				detail("Session database: %s", e.cfg.SessionDB)
				detail("Cache dir: %s", e.cfg.CacheDir)
				return nil
			}},
			{Message: "Opening session database", Fn: func(context.Context) error {
				if !e.paths.SessionDBExists() && e.cfg.SessionDB == e.paths.SessionDBPath() {
					detail("%s does not exist yet and will be created", e.cfg.SessionDB)
				}
				var err error
				if store, err = internal.OpenSessionStore(e.cfg.SessionDB); err != nil {
					return err
				}
				progress.Success("Session database is accessible")
				if dirs, err := e.paths.FindSessionDataDirs(); err == nil {
					detail("Session data directories: %d", len(dirs))
				}
				return nil
			}},
			{Message: "Reading stored sessions", Fn: func(ctx context.Context) error {
				keys, err := store.Keys(ctx)
				if err != nil {
					return err
				}
				for _, key := range keys {
					s, err := store.Load(ctx, key)
					if err != nil {
						progress.Warn(fmt.Sprintf("%s cannot be read: %v", key, err))
						continue
					}
					usable = append(usable, s)
				}
				if len(keys) == 0 {
					progress.Warn("No stored sessions - log in with `chat-timeline login <provider>`")
				} else {
					progress.Success(fmt.Sprintf("%d of %d stored session(s) readable", len(usable), len(keys)))
				}
				return nil
			}},
			{Message: "Checking provider configuration", Fn: func(context.Context) error {
				providers = internal.NewProviders(authenticators(e.cfg)...)
				kinds := providers.Kinds()
				if len(kinds) == 0 {
					progress.Warn("No providers configured in config.yaml")
				} else {
					progress.Success(fmt.Sprintf("%d provider(s) configured", len(kinds)))
					for _, k := range kinds {
						detail("%s", k)
					}
				}
				for _, s := range usable {
					if _, err := providers.Get(s.ProviderKind); err != nil {
						missing[s.ProviderKind] = true
					}
				}
				for _, k := range sortedKeys(missing) {
					progress.Warn(fmt.Sprintf("Sessions for %q have no provider configured", k))
				}
				return nil
			}},
		}
		if healthcheckOnline {
			steps = append(steps, internal.ProgressStep{Message: "Resuming sessions", Fn: func(ctx context.Context) error {
				if len(usable) == 0 {
					return nil
				}
				restored = 0
				for _, s := range usable {
					auth, err := providers.Get(s.ProviderKind)
					if err != nil {
						continue
					}
					p, err := auth.Resume(ctx, s)
					if err != nil {
						progress.Warn(fmt.Sprintf("%s: %v", s.Key(), err))
						continue
					}
					_ = p.Close()
					restored++
					detail("%s resumed", s.Key())
				}
				progress.Success(fmt.Sprintf("%d of %d session(s) resumed", restored, len(usable)))
				return nil
			}})
		}

		if err := progress.Steps(cmd.Context(), steps); err != nil {
			progress.Error(err.Error())
			return err
		}

		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		_, _ = fmt.Fprintln(out)
		switch {
		case len(usable) == 0:
			progress.Warn("No usable sessions yet")
			return nil
		case len(missing) > 0 || restored == 0:
			progress.Error("Health check failed")
			return fmt.Errorf("health check failed: %d provider kind(s) not configured, %d session(s) resumed", len(missing), max(restored, 0))
		default:
			progress.Success("Health check passed!")
			return nil
		}
	},
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckVerbose, "details", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().BoolVar(&healthcheckOnline, "online", false, "Also resume every stored session")
}
