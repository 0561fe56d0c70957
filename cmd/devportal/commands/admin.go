package commands

import (
	"fmt"
	"io"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations",
		Long:  "Operations available to developer portal administrators",
	}

	apps := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"app"},
		Short:   "Manage all apps",
		Long:    "List and inspect apps of every vendor",
	}

	apps.AddCommand(newAdminAppsListCommand())
	apps.AddCommand(newAdminAppsGetCommand())

	cmd.AddCommand(apps)

	return cmd
}

func newAdminAppsListCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List apps",
		Long:  "List all apps, fetching every page",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthenticatedClient(cmd)
			if err != nil {
				return err
			}

			apps, err := client.Admin().ListApps(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list apps: %w", err)
			}

			return render(cmd.OutOrStdout(), apps, func(w io.Writer) error {
				if len(apps) == 0 {
					_, _ = fmt.Fprintln(w, "No apps found")

					return nil
				}

				return renderTable(w, appHeader, appRows(apps))
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "server side filter expression")

	return cmd
}

func newAdminAppsGetCommand() *cobra.Command {
	var published bool

	cmd := &cobra.Command{
		Use:   "get APP_ID...",
		Short: "Get app details",
		Long:  "Display details of one or more apps. Several apps are fetched concurrently.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthenticatedClient(cmd)
			if err != nil {
				return err
			}

			apps, err := fetchAdminApps(cmd, client, args, devportal.AdminGetOptions{Published: published})
			if err != nil {
				return err
			}

			if len(apps) == 1 {
				return renderApp(cmd.OutOrStdout(), &apps[0])
			}

			return render(cmd.OutOrStdout(), apps, func(w io.Writer) error {
				return renderTable(w, appHeader, appRows(apps))
			})
		},
	}

	cmd.Flags().BoolVar(&published, "published", false, "return the published version of the app")

	return cmd
}

// fetchAdminApps fetches the apps concurrently and keeps the argument order.
func fetchAdminApps(cmd *cobra.Command, client devportal.Client, ids []string, opts devportal.AdminGetOptions) ([]devportal.App, error) {
	apps := make([]devportal.App, len(ids))

	group, ctx := errgroup.WithContext(cmd.Context())
	group.SetLimit(constants.DefaultConcurrencyLimit)

	for i, id := range ids {
		i, id := i, id

		group.Go(func() error {
			app, err := client.Admin().GetApp(ctx, id, opts)
			if err != nil {
				return fmt.Errorf("failed to get app %s: %w", id, err)
			}

			apps[i] = *app

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return apps, nil
}

// renderApp prints a single app. JSON and YAML carry every attribute
// returned by the API.
func renderApp(w io.Writer, app *devportal.App) error {
	return render(w, app, func(w io.Writer) error {
		return displayAppTable(w, app)
	})
}

func displayAppTable(w io.Writer, app *devportal.App) error {
	row := appRow(*app)

	rows := [][]string{
		{"ID", row[0]},
		{"Name", row[1]},
		{"Type", row[2]},
		{"Version", row[3]},
		{"Vendor", row[4]},
		{"Public", row[5]},
		{"Deprecated", row[6]},
		{"Short Description", valueOrNA(app.ShortDescription)},
		{"URI", valueOrNA(app.URI)},
		{"Documentation", valueOrNA(app.DocumentationURL)},
		{"License", valueOrNA(app.LicenseURL)},
		{"Created On", valueOrNA(app.CreatedOn)},
	}

	if app.Repository != nil {
		rows = append(rows,
			[]string{"Repository Type", valueOrNA(app.Repository.Type)},
			[]string{"Repository URI", valueOrNA(app.Repository.URI)},
			[]string{"Repository Tag", valueOrNA(app.Repository.Tag)},
		)
	}

	return renderTable(w, []string{"Property", "Value"}, rows)
}
