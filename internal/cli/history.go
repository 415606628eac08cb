package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "history <chatId>",
		Short: "Show recent messages from a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newProviderClient()
			if err != nil {
				return err
			}

			msgs, err := client.GetChatHistory(context.Background(), args[0], count)
			if err != nil {
				return fmt.Errorf("fetching history: %w", err)
			}

			if len(msgs) == 0 {
				fmt.Println("no messages")
				return nil
			}
			for _, m := range msgs {
				ts := time.Unix(m.Timestamp, 0).Format(time.DateTime)
				sender := m.SenderName
				if sender == "" {
					sender = m.SenderID
				}
				text := m.TextMessage
				if text == "" && m.Caption != "" {
					text = m.Caption
				}
				if text == "" {
					text = "<" + m.TypeMessage + ">"
				}
				fmt.Printf("[%s] %s: %s\n", ts, sender, text)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 20, "number of messages to fetch")
	return cmd
}
