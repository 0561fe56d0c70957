package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAppsCommand creates the public apps command group.
func NewAppsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"app"},
		Short:   "Browse the public app catalog",
		Long:    "Inspect apps of the public catalog. No login is needed.",
	}

	cmd.AddCommand(newAppsGetCommand())

	return cmd
}

func newAppsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get APP_ID",
		Short: "Get public app details",
		Long:  "Display the public detail of an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			app, err := client.Public().GetApp(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get app: %w", err)
			}

			return renderApp(cmd.OutOrStdout(), app)
		},
	}
}
