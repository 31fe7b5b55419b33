package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dataDir    string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chat-timeline",
	Short: "Read and sync chat timelines across accounts",
	Long: `A CLI for keeping chat accounts from several networks logged in and
reading their conversations as grouped timelines.

Each network is reached through a relay bridge configured in config.yaml.
Sessions are kept in a local SQLite database so accounts stay logged in
between runs.

Quick Start:
  chat-timeline login matrix -u @alice:example.org   # Log in once
  chat-timeline list                                  # List conversations
  chat-timeline show <conversation-id>                # Read a timeline
  chat-timeline sync --watch                          # Keep syncing
  chat-timeline export <conversation-id> --format md  # Export a timeline`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <config dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Keep config, sessions and cache under this directory")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
