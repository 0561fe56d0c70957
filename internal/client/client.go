package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/keboola/developer-portal-client-go/internal/auth"
	"github.com/keboola/developer-portal-client-go/internal/constants"
	dphttp "github.com/keboola/developer-portal-client-go/internal/http"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/keboola/developer-portal-client-go"

// Client implements the devportal.Client interface.
type Client struct {
	httpClient    *dphttp.Client
	session       *auth.Session
	authenticator *auth.Authenticator
	logger        devportal.Logger
	tracer        trace.Tracer

	// Resource clients
	admin   *AdminClient
	vendors *VendorsClient
	public  *PublicClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *devportal.Config) []dphttp.Option {
	var httpOpts []dphttp.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, dphttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, dphttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, dphttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, dphttp.WithHTTPClient(config.HTTPClient))
	}

	if config.Timeout > 0 {
		httpOpts = append(httpOpts, dphttp.WithTimeout(config.Timeout))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, dphttp.WithRateLimit(config.RateLimit, config.RequestsBurst))
	}

	return httpOpts
}

// New creates a new developer portal client. Options are applied after the
// ones derived from config, so they can override e.g. the retry chain.
func New(config *devportal.Config, opts ...dphttp.Option) (*Client, error) {
	if config == nil {
		config = devportal.DefaultConfig()
	}

	err := validateConfig(config)
	if err != nil {
		return nil, err
	}

	httpClient, err := dphttp.NewClient(config.BaseURL, append(createHTTPClientOptions(config), opts...)...)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = devportal.NopLogger{}
	}

	client := &Client{
		httpClient: httpClient,
		session:    auth.NewSession(config.Credentials),
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}

	client.authenticator = auth.NewAuthenticator(client.session, client, config.Persister, logger)

	// Initialize resource clients
	client.admin = NewAdminClient(client)
	client.vendors = NewVendorsClient(client)
	client.public = NewPublicClient(client)

	return client, nil
}

// BaseURL returns the normalized API endpoint.
func (c *Client) BaseURL() string {
	return c.httpClient.BaseURL()
}

// Login implements devportal.Client.Login.
func (c *Client) Login(ctx context.Context, username, password string) (*devportal.LoginResponse, error) {
	return c.authenticator.Login(ctx, username, password)
}

// RefreshToken implements devportal.Client.RefreshToken.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	return c.authenticator.Refresh(ctx)
}

// Credentials implements devportal.Client.Credentials.
func (c *Client) Credentials() devportal.Credentials {
	return c.session.Credentials()
}

// SetCredentials implements devportal.Client.SetCredentials.
func (c *Client) SetCredentials(creds devportal.Credentials) {
	c.session.SetCredentials(creds)
}

// Identity implements devportal.Client.Identity.
func (c *Client) Identity() devportal.Identity {
	return c.session.Identity()
}

// Admin implements devportal.Client.Admin.
func (c *Client) Admin() devportal.AdminClient {
	return c.admin
}

// Vendors implements devportal.Client.Vendors.
func (c *Client) Vendors() devportal.VendorsClient {
	return c.vendors
}

// Public implements devportal.Client.Public.
func (c *Client) Public() devportal.PublicClient {
	return c.public
}

// Request performs a call without the session token. A 401 from an
// authentication endpoint becomes an auth error, any other non-2xx response
// a remote error. Failures without a response are returned unchanged.
func (c *Client) Request(ctx context.Context, method, path string, params devportal.Params, headers map[string]string) (*dphttp.Response, error) {
	ctx, span, requestID := c.startSpan(ctx, "devportal.Request", method, path)
	defer span.End()

	resp, err := c.httpClient.Do(ctx, &dphttp.Request{
		Method:  method,
		Path:    path,
		Params:  params,
		Headers: headers,
	})
	if err != nil {
		err = classify(path, resp, err)
		c.fail(span, requestID, method, path, err)

		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return resp, nil
}

// AuthRequest performs a call with the session token as Authorization header.
// On HTTP 401 the token is refreshed and the call re-issued, at most five
// times; after that the last 401 is returned as the raw *devportal.HTTPError.
func (c *Client) AuthRequest(ctx context.Context, method, path string, params devportal.Params) (*dphttp.Response, error) {
	ctx, span, requestID := c.startSpan(ctx, "devportal.AuthRequest", method, path)
	defer span.End()

	if c.session.Token() == "" {
		err := devportal.NewUserError(constants.MsgLoginRequired)
		c.fail(span, requestID, method, path, err)

		return nil, err
	}

	remaining := constants.AuthRetryBudget

	for {
		resp, err := c.httpClient.Do(ctx, &dphttp.Request{
			Method: method,
			Path:   path,
			Params: params,
			Headers: map[string]string{
				constants.HeaderAuthorization: c.session.Token(),
			},
		})
		if err == nil {
			span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

			return resp, nil
		}

		if resp == nil || resp.StatusCode != http.StatusUnauthorized || isAuthPath(path) {
			err = classify(path, resp, err)
			c.fail(span, requestID, method, path, err)

			return nil, err
		}

		if remaining <= 0 {
			c.fail(span, requestID, method, path, err)

			return nil, err
		}

		c.logger.Debug("Token rejected, refreshing", map[string]interface{}{
			"request_id": requestID,
			"path":       path,
			"remaining":  remaining,
		})

		_, err = c.authenticator.Refresh(ctx)
		if err != nil {
			c.fail(span, requestID, method, path, err)

			return nil, err
		}

		remaining--
	}
}

func (c *Client) startSpan(ctx context.Context, name, method, path string) (context.Context, trace.Span, string) {
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("devportal.path", path),
		attribute.String("devportal.request_id", requestID),
	))

	return ctx, span, requestID
}

func (c *Client) fail(span trace.Span, requestID, method, path string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	c.logger.Debug("Request failed", map[string]interface{}{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     devportal.StatusCode(err),
		"error":      err.Error(),
	})
}

// classify turns a transport failure into the typed error of the client.
func classify(path string, resp *dphttp.Response, err error) error {
	var httpErr *devportal.HTTPError
	if resp == nil || !errors.As(err, &httpErr) {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && isAuthPath(path) {
		return devportal.NewAuthError(path, resp.Body, "")
	}

	return devportal.NewRemoteError(path, resp.Body, resp.StatusCode, httpErr)
}

func isAuthPath(path string) bool {
	path = strings.TrimPrefix(path, "/")

	return path == constants.PathLogin || path == constants.PathToken
}

func decodeResponse[T any](resp *dphttp.Response, what string) (*T, error) {
	var result T

	err := resp.Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", what, err)
	}

	return &result, nil
}
