package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <chatId> <message>",
		Short: "Send a text message to a chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newProviderClient()
			if err != nil {
				return err
			}

			res, err := client.SendMessage(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("sending message: %w", err)
			}

			fmt.Printf("sent: %s\n", res.IDMessage)
			return nil
		},
	}
}
