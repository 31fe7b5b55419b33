package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/spf13/cobra"
)

var (
	syncWatch    bool
	syncInterval time.Duration
	syncRounds   int
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync every stored account",
	Long: `Run one incremental sync for every stored account, save the sync
positions and refresh the conversation lists.

With --watch the sync repeats on an interval (sync_interval from the config
by default) until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if err := a.restoreAll(ctx); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if !syncWatch {
			reports, err := a.registry.SyncAll(ctx)
			printSyncReports(out, a.registry, reports)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			return nil
		}

		interval := syncInterval
		if interval <= 0 {
			interval = a.cfg.SyncInterval
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		rounds := 0
		loop := internal.NewSyncLoop(a.registry, interval)
		loop.OnSync = func(reports map[internal.Handle]internal.SyncReport, err error) {
			rounds++
			_, _ = fmt.Fprintln(out, dateStyle.Render(fmt.Sprintf("round %d at %s", rounds, now().Format("15:04:05"))))
			printSyncReports(out, a.registry, reports)
			if err != nil {
				_, _ = fmt.Fprintln(out, warningStyle.Render(err.Error()))
			}
			if syncRounds > 0 && rounds >= syncRounds {
				cancel()
			}
		}

		a.progress.Info(fmt.Sprintf("Syncing every %s, press Ctrl+C to stop", interval))
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func printSyncReports(out io.Writer, registry *internal.Registry, reports map[internal.Handle]internal.SyncReport) {
	type line struct {
		key    string
		report internal.SyncReport
	}
	lines := make([]line, 0, len(reports))
	for h, r := range reports {
		c, err := registry.Get(h)
		if err != nil {
			continue
		}
		lines = append(lines, line{key: c.Key(), report: r})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].key < lines[j].key })

	for _, l := range lines {
		_, _ = fmt.Fprintf(out, "%s %s received, %s new, %d for other conversations\n",
			successStyle.Render(l.key+":"),
			countStyle.Render(fmt.Sprint(l.report.Received)),
			countStyle.Render(fmt.Sprint(l.report.Accepted)),
			l.report.Discarded)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "Keep syncing on an interval")
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "Sync interval for --watch (default: sync_interval from the config)")
	syncCmd.Flags().IntVar(&syncRounds, "rounds", 0, "Stop --watch after this many rounds (0: until interrupted)")
}
