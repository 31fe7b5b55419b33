package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id> <event-id>",
	Short: "Delete a message",
	Long: `Delete a message from a conversation on the provider. Only messages the
account is allowed to delete can be removed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID, eventID := args[0], args[1]

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
		if err := a.openConversation(ctx, c, conversationID, 1); err != nil {
			return err
		}

		err = a.progress.Run(ctx, "Deleting "+eventID, func(ctx context.Context) error {
			return c.DeleteEvent(ctx, eventID)
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Deleted %s from %s", eventID, conversationID)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	addAccountFlag(deleteCmd)
}
