package commands

import (
	"fmt"
	"io"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"github.com/spf13/cobra"
)

// Attributes with a dedicated request field.
var (
	createRequestKeys = []string{
		"id", "name", "type", "shortDescription", "longDescription",
		"licenseUrl", "documentationUrl", "repository",
	}
	updateRequestKeys = []string{
		"name", "shortDescription", "longDescription",
		"licenseUrl", "documentationUrl", "repository",
	}
)

// NewVendorsCommand creates the vendors command group.
func NewVendorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vendors",
		Aliases: []string{"vendor"},
		Short:   "Manage vendors and their apps",
		Long:    "List vendors of the public catalog and manage the apps of a vendor",
	}

	cmd.AddCommand(newVendorsListCommand())
	cmd.AddCommand(newVendorAppsCommand())

	return cmd
}

func newVendorsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List vendors",
		Long:  "List all vendors of the public catalog. No login is needed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			vendors, err := client.Public().ListVendors(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list vendors: %w", err)
			}

			return render(cmd.OutOrStdout(), vendors, func(w io.Writer) error {
				if len(vendors) == 0 {
					_, _ = fmt.Fprintln(w, "No vendors found")

					return nil
				}

				rows := make([][]string, 0, len(vendors))
				for _, vendor := range vendors {
					rows = append(rows, []string{
						vendor.ID,
						valueOrNA(vendor.Name),
						valueOrNA(vendor.Email),
						valueOrNA(vendor.Address),
					})
				}

				return renderTable(w, []string{"ID", "Name", "Email", "Address"}, rows)
			})
		},
	}
}

func newVendorAppsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"app"},
		Short:   "Manage the apps of a vendor",
		Long:    "List, inspect, create and update the apps of a vendor",
	}

	cmd.AddCommand(newVendorAppsListCommand())
	cmd.AddCommand(newVendorAppsGetCommand())
	cmd.AddCommand(newVendorAppsCreateCommand())
	cmd.AddCommand(newVendorAppsUpdateCommand())
	cmd.AddCommand(newVendorAppsRepositoryCommand())

	return cmd
}

func newVendorAppsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list VENDOR",
		Short: "List vendor apps",
		Long:  "List all apps of a vendor, fetching every page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthenticatedClient(cmd)
			if err != nil {
				return err
			}

			apps, err := client.Vendors().ListApps(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list apps: %w", err)
			}

			return render(cmd.OutOrStdout(), apps, func(w io.Writer) error {
				if len(apps) == 0 {
					_, _ = fmt.Fprintf(w, "No apps found for vendor %s\n", args[0])

					return nil
				}

				return renderTable(w, appHeader, appRows(apps))
			})
		},
	}
}

func newVendorAppsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get VENDOR APP_ID",
		Short: "Get vendor app details",
		Long:  "Display the details of an app of a vendor",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthenticatedClient(cmd)
			if err != nil {
				return err
			}

			app, err := client.Vendors().GetApp(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get app: %w", err)
			}

			return renderApp(cmd.OutOrStdout(), app)
		},
	}
}

func newVendorAppsCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create VENDOR",
		Short: "Create an app",
		Long: `Create an app from a JSON or YAML document. Attributes without a dedicated
field are sent as they are. Use "-" to read the document from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInputFile(cmd, file)
			if err != nil {
				return err
			}

			req := &devportal.AppCreateRequest{}

			req.Extra, err = decodeDocument(doc, req, createRequestKeys...)
			if err != nil {
				return err
			}

			client, err := newAuthenticatedClient(cmd)
			if err != nil {
				return err
			}

			app, err := client.Vendors().CreateApp(cmd.Context(), args[0], req)
			if err != nil {
				return fmt.Errorf("failed to create app: %w", err)
			}

			return renderApp(cmd.OutOrStdout(), app)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON or YAML document describing the app")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newVendorAppsUpdateCommand() *cobra.Command {
	var (
		file             string
		name             string
		shortDescription string
		tag              string
	)

	cmd := &cobra.Command{
		Use:   "update VENDOR APP_ID",
		Short: "Update an app",
		Long: `Update an app from a JSON or YAML document or from flags. Flags override
the document. --tag keeps the repository type and URI and only moves the tag.`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			vendor, appID := args[0], args[1]

			if file == "" && !cmd.Flags().Changed("name") && !cmd.Flags().Changed("short-description") && tag == "" {
				return constants.ErrNoInput
			}

			req := &devportal.AppUpdateRequest{}

			if file != "" {
				doc, err := readInputFile(cmd, file)
				if err != nil {
					return err
				}

				req.Extra, err = decodeDocument(doc, req, updateRequestKeys...)
				if err != nil {
					return err
				}
			}

			if cmd.Flags().Changed("name") {
				req.Name = &name
			}

			if cmd.Flags().Changed("short-description") {
				req.ShortDescription = &shortDescription
			}

			client, err := newAuthenticatedClient(cmd)
			if err != nil {
				return err
			}

			if tag != "" {
				err = applyRepositoryTag(cmd, client, vendor, appID, req, tag)
				if err != nil {
					return err
				}
			}

			app, err := client.Vendors().UpdateApp(cmd.Context(), vendor, appID, req)
			if err != nil {
				return fmt.Errorf("failed to update app: %w", err)
			}

			return renderApp(cmd.OutOrStdout(), app)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON or YAML document with the changed attributes")
	cmd.Flags().StringVar(&name, "name", "", "new app name")
	cmd.Flags().StringVar(&shortDescription, "short-description", "", "new short description")
	cmd.Flags().StringVar(&tag, "tag", "", "new repository tag")

	return cmd
}

// applyRepositoryTag sets the repository tag, taking the rest of the
// repository from the request or from the current app.
func applyRepositoryTag(cmd *cobra.Command, client devportal.Client, vendor, appID string, req *devportal.AppUpdateRequest, tag string) error {
	if req.Repository == nil {
		current, err := client.Vendors().GetApp(cmd.Context(), vendor, appID)
		if err != nil {
			return fmt.Errorf("failed to get app: %w", err)
		}

		req.Repository = &devportal.AppRepository{}
		if current.Repository != nil {
			*req.Repository = *current.Repository
		}
	}

	req.Repository.Tag = tag

	return nil
}

func newVendorAppsRepositoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repository VENDOR APP_ID",
		Short: "Get repository credentials",
		Long:  "Display the registry credentials for pushing images of an app",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthenticatedClient(cmd)
			if err != nil {
				return err
			}

			creds, err := client.Vendors().GetAppRepository(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get repository: %w", err)
			}

			return render(cmd.OutOrStdout(), creds, func(w io.Writer) error {
				return renderTable(w, []string{"Property", "Value"}, [][]string{
					{"Registry", valueOrNA(creds.Registry)},
					{"Repository", valueOrNA(creds.Repository)},
					{"Username", valueOrNA(creds.Credentials.Username)},
					{"Password", valueOrNA(creds.Credentials.Password)},
				})
			})
		},
	}
}
