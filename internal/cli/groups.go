package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ybarkan/wagate/internal/groups"
)

func newGroupsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the WhatsApp groups visible to the instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newProviderClient()
			if err != nil {
				return err
			}

			svc := groups.New(client, log)
			list, err := svc.Fetch(context.Background())
			if err != nil {
				return fmt.Errorf("fetching groups: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			if len(list) == 0 {
				fmt.Println("no groups found")
				return nil
			}
			for _, g := range list {
				fmt.Printf("%-40s %s\n", g.ID, g.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
