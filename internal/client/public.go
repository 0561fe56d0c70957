package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
)

// PublicClient implements devportal.PublicClient. Its calls carry no token.
type PublicClient struct {
	client *Client
}

// NewPublicClient creates a new public catalog client.
func NewPublicClient(client *Client) *PublicClient {
	return &PublicClient{client: client}
}

// ListVendorsPaginated implements devportal.PublicClient.ListVendorsPaginated.
func (c *PublicClient) ListVendorsPaginated(ctx context.Context, opts devportal.ListOptions) ([]devportal.Vendor, error) {
	if opts.Limit <= 0 {
		opts.Limit = constants.DefaultPageSize
	}

	params, err := devportal.ParamsFrom(opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Request(ctx, http.MethodGet, constants.PathVendors, params, nil)
	if err != nil {
		return nil, fmt.Errorf("listing vendors: %w", err)
	}

	vendors, err := decodeResponse[[]devportal.Vendor](resp, "vendors list")
	if err != nil {
		return nil, err
	}

	return *vendors, nil
}

// ListVendors implements devportal.PublicClient.ListVendors.
func (c *PublicClient) ListVendors(ctx context.Context) ([]devportal.Vendor, error) {
	return devportal.CollectPages(ctx, constants.DefaultPageSize, func(ctx context.Context, offset, limit int) ([]devportal.Vendor, error) {
		return c.ListVendorsPaginated(ctx, devportal.ListOptions{Offset: offset, Limit: limit})
	})
}

// GetApp implements devportal.PublicClient.GetApp.
func (c *PublicClient) GetApp(ctx context.Context, appID string) (*devportal.App, error) {
	resp, err := c.client.Request(ctx, http.MethodGet, fmt.Sprintf("%s/%s", constants.PathApps, url.PathEscape(appID)), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("getting app: %w", err)
	}

	return decodeResponse[devportal.App](resp, "app")
}
