package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/keboola/developer-portal-client-go/internal/auth"
	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/spf13/cobra"
)

// TokenStatus describes the stored bearer token.
type TokenStatus struct {
	Authenticated   bool       `json:"authenticated"             yaml:"authenticated"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"      yaml:"expires_at,omitempty"`
	ExpiresIn       string     `json:"expires_in,omitempty"      yaml:"expires_in,omitempty"`
	Expired         bool       `json:"expired"                   yaml:"expired"`
	ExpiringSoon    bool       `json:"expiring_soon"             yaml:"expiring_soon"`
	HasRefreshToken bool       `json:"has_refresh_token"         yaml:"has_refresh_token"`
	LastRefreshed   *time.Time `json:"last_refreshed,omitempty"  yaml:"last_refreshed,omitempty"`
}

// NewTokenCommand creates the token command group. Without a subcommand it
// shows the token status.
func NewTokenCommand() *cobra.Command {
	status := newTokenStatusCommand()

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage authentication tokens",
		Long:  "Commands for managing authentication tokens including status and refresh",
		RunE:  status.RunE,
	}

	cmd.AddCommand(status)
	cmd.AddCommand(newTokenRefreshCommand())

	return cmd
}

func newTokenStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show token status and expiration",
		Long:  "Display information about the stored bearer token including its expiration time",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token == "" {
				return constants.ErrNotAuthenticated
			}

			status := buildTokenStatus(config, time.Now())

			return render(cmd.OutOrStdout(), status, func(w io.Writer) error {
				return displayTokenStatusTable(w, status)
			})
		},
	}
}

func newTokenRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the bearer token",
		Long:  "Exchange the stored refresh token for a new bearer token and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadConfig().RefreshToken == "" {
				return constants.ErrNoRefreshToken
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			// The new token is saved by the config persister.
			_, err = client.RefreshToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to refresh token: %w", err)
			}

			status := buildTokenStatus(loadConfig(), time.Now())

			return render(cmd.OutOrStdout(), status, func(w io.Writer) error {
				_, _ = fmt.Fprintln(w, "Token refreshed")

				return displayTokenStatusTable(w, status)
			})
		},
	}
}

func buildTokenStatus(config *Config, now time.Time) *TokenStatus {
	status := &TokenStatus{
		Authenticated:   config.Token != "",
		HasRefreshToken: config.RefreshToken != "",
		LastRefreshed:   config.LastRefreshed,
	}

	expiresAt := config.TokenExpiresAt
	if expiresAt == nil {
		decoded, err := auth.TokenExpiry(config.Token)
		if err == nil {
			expiresAt = &decoded
		}
	}

	if expiresAt == nil {
		return status
	}

	status.ExpiresAt = expiresAt
	status.Expired = !now.Before(*expiresAt)
	status.ExpiringSoon = !status.Expired && now.Add(constants.TokenExpiryWarning).After(*expiresAt)

	if !status.Expired {
		status.ExpiresIn = expiresAt.Sub(now).Truncate(time.Second).String()
	}

	return status
}

func displayTokenStatusTable(w io.Writer, status *TokenStatus) error {
	rows := [][]string{
		{"Authenticated", formatBool(status.Authenticated)},
		{"Refresh Token", formatBool(status.HasRefreshToken)},
	}

	if status.ExpiresAt != nil {
		rows = append(rows,
			[]string{"Expires At", status.ExpiresAt.Format(time.RFC3339)},
			[]string{"Expired", formatBool(status.Expired)},
			[]string{"Expiring Soon", formatBool(status.ExpiringSoon)},
		)

		if status.ExpiresIn != "" {
			rows = append(rows, []string{"Expires In", status.ExpiresIn})
		}
	} else {
		rows = append(rows, []string{"Expires At", NotAvailable})
	}

	if status.LastRefreshed != nil {
		rows = append(rows, []string{"Last Refreshed", status.LastRefreshed.Format(time.RFC3339)})
	}

	return renderTable(w, []string{"Property", "Value"}, rows)
}
