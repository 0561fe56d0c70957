package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
)

// VendorsClient implements devportal.VendorsClient.
type VendorsClient struct {
	client *Client
}

// NewVendorsClient creates a new vendors client.
func NewVendorsClient(client *Client) *VendorsClient {
	return &VendorsClient{client: client}
}

func vendorAppsPath(vendor string) string {
	return fmt.Sprintf("%s/%s/apps", constants.PathVendors, url.PathEscape(vendor))
}

func vendorAppPath(vendor, id string) string {
	return fmt.Sprintf("%s/%s", vendorAppsPath(vendor), url.PathEscape(id))
}

// ListAppsPaginated implements devportal.VendorsClient.ListAppsPaginated.
func (c *VendorsClient) ListAppsPaginated(ctx context.Context, vendor string, opts devportal.ListOptions) ([]devportal.App, error) {
	if opts.Limit <= 0 {
		opts.Limit = constants.DefaultPageSize
	}

	params, err := devportal.ParamsFrom(opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.AuthRequest(ctx, http.MethodGet, vendorAppsPath(vendor), params)
	if err != nil {
		return nil, fmt.Errorf("listing vendor apps: %w", err)
	}

	apps, err := decodeResponse[[]devportal.App](resp, "apps list")
	if err != nil {
		return nil, err
	}

	return *apps, nil
}

// ListApps implements devportal.VendorsClient.ListApps.
func (c *VendorsClient) ListApps(ctx context.Context, vendor string) ([]devportal.App, error) {
	return devportal.CollectPages(ctx, constants.DefaultPageSize, func(ctx context.Context, offset, limit int) ([]devportal.App, error) {
		return c.ListAppsPaginated(ctx, vendor, devportal.ListOptions{Offset: offset, Limit: limit})
	})
}

// GetApp implements devportal.VendorsClient.GetApp.
func (c *VendorsClient) GetApp(ctx context.Context, vendor, id string) (*devportal.App, error) {
	resp, err := c.client.AuthRequest(ctx, http.MethodGet, vendorAppPath(vendor, id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting app: %w", err)
	}

	return decodeResponse[devportal.App](resp, "app")
}

// CreateApp implements devportal.VendorsClient.CreateApp.
func (c *VendorsClient) CreateApp(ctx context.Context, vendor string, req *devportal.AppCreateRequest) (*devportal.App, error) {
	if req == nil {
		return nil, devportal.NewUserError("Missing app definition.")
	}

	err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	params, err := req.Params()
	if err != nil {
		return nil, err
	}

	resp, err := c.client.AuthRequest(ctx, http.MethodPost, vendorAppsPath(vendor), params)
	if err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	return decodeResponse[devportal.App](resp, "app")
}

// UpdateApp implements devportal.VendorsClient.UpdateApp.
func (c *VendorsClient) UpdateApp(ctx context.Context, vendor, id string, req *devportal.AppUpdateRequest) (*devportal.App, error) {
	if req == nil {
		return nil, devportal.NewUserError("Missing app changes.")
	}

	err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	params, err := req.Params()
	if err != nil {
		return nil, err
	}

	resp, err := c.client.AuthRequest(ctx, http.MethodPatch, vendorAppPath(vendor, id), params)
	if err != nil {
		return nil, fmt.Errorf("updating app: %w", err)
	}

	return decodeResponse[devportal.App](resp, "app")
}

// GetAppRepository implements devportal.VendorsClient.GetAppRepository.
func (c *VendorsClient) GetAppRepository(ctx context.Context, vendor, id string) (*devportal.RepositoryCredentials, error) {
	resp, err := c.client.AuthRequest(ctx, http.MethodGet, vendorAppPath(vendor, id)+"/repository", nil)
	if err != nil {
		return nil, fmt.Errorf("getting app repository: %w", err)
	}

	return decodeResponse[devportal.RepositoryCredentials](resp, "app repository")
}
