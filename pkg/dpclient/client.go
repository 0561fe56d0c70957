package dpclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/keboola/developer-portal-client-go/internal/client"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
)

// New creates a new developer portal client. A nil config targets the
// production API without credentials.
func New(_ context.Context, config *devportal.Config) (devportal.Client, error) {
	if config == nil {
		config = devportal.DefaultConfig()
	}

	normalized := *config
	normalized.BaseURL = normalizeEndpoint(config.BaseURL)

	c, err := client.New(&normalized)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// normalizeEndpoint adds "https://" when the endpoint has no scheme. Blank
// endpoints are kept so the client can reject them.
func normalizeEndpoint(endpoint string) string {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return endpoint
	}

	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "https://" + trimmed
	}

	return trimmed
}

// NewWithEndpoint creates a new client with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (devportal.Client, error) {
	return New(ctx, &devportal.Config{
		BaseURL: endpoint,
	})
}

// NewWithToken creates a new client with an API endpoint and stored tokens.
func NewWithToken(ctx context.Context, endpoint, token, refreshToken string) (devportal.Client, error) {
	return New(ctx, &devportal.Config{
		BaseURL: endpoint,
		Credentials: devportal.Credentials{
			Token:        token,
			RefreshToken: refreshToken,
		},
	})
}

// NewWithPassword creates a new client and logs in with username and password.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (devportal.Client, error) {
	c, err := NewWithEndpoint(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	_, err = c.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	return c, nil
}
