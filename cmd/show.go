package cmd

import (
	"github.com/iksnae/chat-timeline/internal"
	"github.com/spf13/cobra"
)

var showPages int

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show the timeline of a conversation",
	Long: `Display the recent timeline of a conversation, grouped by sender.

Use --pages to page further back into the history. Use 'chat-timeline list'
to see conversation ids.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		c, err := a.client(ctx)
		if err != nil {
			return err
		}
		if err := a.openConversation(ctx, c, args[0], showPages); err != nil {
			return err
		}

		renderTimeline(cmd.OutOrStdout(), findConversation(c, args[0]), c.Timeline(), historyExhausted(c))
		return nil
	},
}

func findConversation(c internal.ChatClient, id string) internal.ConversationSummary {
	if conv, ok := c.Conversation(id); ok {
		return conv
	}
	return internal.ConversationSummary{ID: id}
}

func historyExhausted(c internal.ChatClient) bool {
	if hc, ok := c.(interface{ HistoryExhausted() bool }); ok {
		return hc.HistoryExhausted()
	}
	return false
}

func init() {
	rootCmd.AddCommand(showCmd)
	addAccountFlag(showCmd)
	showCmd.Flags().IntVarP(&showPages, "pages", "n", 1, "Number of history pages to load")
}
