package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log the instance out of WhatsApp",
		Long:  "Logs the instance out so a new QR pairing is required. If the provider refuses the logout, the instance is rebooted instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newProviderClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := client.LogoutOrReboot(ctx); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Println("logged out")
			return nil
		},
	}
}
