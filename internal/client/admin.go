package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
)

// AdminClient implements devportal.AdminClient.
type AdminClient struct {
	client *Client
}

// NewAdminClient creates a new admin client.
func NewAdminClient(client *Client) *AdminClient {
	return &AdminClient{client: client}
}

// ListAppsPaginated implements devportal.AdminClient.ListAppsPaginated.
func (c *AdminClient) ListAppsPaginated(ctx context.Context, opts devportal.AdminListOptions) ([]devportal.App, error) {
	if opts.Limit <= 0 {
		opts.Limit = constants.DefaultPageSize
	}

	params, err := devportal.ParamsFrom(opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.AuthRequest(ctx, http.MethodGet, constants.PathAdminApps, params)
	if err != nil {
		return nil, fmt.Errorf("listing apps: %w", err)
	}

	apps, err := decodeResponse[[]devportal.App](resp, "apps list")
	if err != nil {
		return nil, err
	}

	return *apps, nil
}

// ListApps implements devportal.AdminClient.ListApps.
func (c *AdminClient) ListApps(ctx context.Context, filter string) ([]devportal.App, error) {
	return devportal.CollectPages(ctx, constants.DefaultPageSize, func(ctx context.Context, offset, limit int) ([]devportal.App, error) {
		return c.ListAppsPaginated(ctx, devportal.AdminListOptions{Filter: filter, Offset: offset, Limit: limit})
	})
}

// GetApp implements devportal.AdminClient.GetApp.
func (c *AdminClient) GetApp(ctx context.Context, id string, opts devportal.AdminGetOptions) (*devportal.App, error) {
	path := fmt.Sprintf("%s/%s", constants.PathAdminApps, url.PathEscape(id))
	if opts.Published {
		path += "?published=true"
	}

	resp, err := c.client.AuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting app: %w", err)
	}

	return decodeResponse[devportal.App](resp, "app")
}
