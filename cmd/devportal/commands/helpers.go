package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/keboola/developer-portal-client-go/internal/auth"
	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"github.com/keboola/developer-portal-client-go/pkg/dpclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"
	NotSet       = "(not set)"
	Yes          = "yes"
	No           = "no"

	cliUserAgent = "devportal-cli"
)

// outputFormat returns the validated --output value.
func outputFormat() (string, error) {
	format := viper.GetString(keyOutput)

	switch format {
	case "", constants.FormatTable:
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q (use table, json or yaml)", constants.ErrInvalidOutputFormat, format)
	}
}

// render writes data in the selected output format. The table callback is
// used for the default table format.
func render(w io.Writer, data any, table func(io.Writer) error) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err = encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode output as JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		err = encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode output as YAML: %w", err)
		}

		return nil
	default:
		return table(w)
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)

	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}

	table.Header(cells...)

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}

	return devportal.MaskValue
}

func formatBool(value bool) string {
	if value {
		return Yes
	}

	return No
}

func valueOrNA(value string) string {
	if value == "" {
		return NotAvailable
	}

	return value
}

// newLogger returns a zerolog backed logger when --verbose is set.
func newLogger(w io.Writer) devportal.Logger {
	if !viper.GetBool(keyVerbose) {
		return devportal.NopLogger{}
	}

	return devportal.NewZerologLogger(w, "debug", true)
}

// newClient builds a client for the configured endpoint with the stored
// tokens. Refreshed tokens are written back to the configuration file.
func newClient(cmd *cobra.Command) (devportal.Client, error) {
	config := loadConfig()

	endpoint := config.URL
	if endpoint == "" {
		endpoint = devportal.DefaultBaseURL
	}

	verbose := viper.GetBool(keyVerbose)

	client, err := dpclient.New(cmd.Context(), &devportal.Config{
		BaseURL:     endpoint,
		Credentials: config.Credentials(),
		Persister:   NewConfigPersister(),
		Logger:      newLogger(cmd.ErrOrStderr()),
		Debug:       verbose,
		UserAgent:   cliUserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// newAuthenticatedClient is newClient for commands that need a stored token.
// A token about to expire is refreshed up front.
func newAuthenticatedClient(cmd *cobra.Command) (devportal.Client, error) {
	config := loadConfig()
	if config.Token == "" {
		return nil, constants.ErrNotAuthenticated
	}

	client, err := newClient(cmd)
	if err != nil {
		return nil, err
	}

	if config.RefreshToken != "" && auth.IsTokenExpiringSoon(config.Token, constants.TokenExpiryWarning) {
		_, err = client.RefreshToken(cmd.Context())
		if err != nil {
			// The request itself refreshes again on HTTP 401.
			newLogger(cmd.ErrOrStderr()).Warn("Proactive token refresh failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return client, nil
}

// readInputFile reads a JSON or YAML document from path, "-" meaning stdin.
func readInputFile(cmd *cobra.Command, path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		// #nosec G304 -- the path is provided by the user on purpose
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	// YAML is a superset of JSON.
	var doc map[string]any

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	return doc, nil
}

// decodeDocument decodes doc into v and returns the attributes v has no field for.
func decodeDocument(doc map[string]any, v any, known ...string) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	extra := make(map[string]any)

	for key, value := range doc {
		if !slices.Contains(known, key) {
			extra[key] = value
		}
	}

	return extra, nil
}

func appRows(apps []devportal.App) [][]string {
	rows := make([][]string, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, appRow(app))
	}

	return rows
}

var appHeader = []string{"ID", "Name", "Type", "Version", "Vendor", "Public", "Deprecated"}

func appRow(app devportal.App) []string {
	vendor := NotAvailable
	if app.Vendor != nil {
		vendor = valueOrNA(app.Vendor.ID)
	}

	return []string{
		app.ID,
		valueOrNA(app.Name),
		valueOrNA(app.Type),
		strconv.Itoa(app.Version),
		vendor,
		formatBool(app.IsPublic),
		formatBool(app.IsDeprecated),
	}
}
