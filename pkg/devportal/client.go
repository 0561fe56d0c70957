package devportal

import (
	"context"
	"net/http"
	"time"
)

// DefaultBaseURL is the production developer portal API.
const DefaultBaseURL = "https://apps-api.keboola.com/"

// Client is the main interface for the developer portal API.
type Client interface {
	// Login exchanges a username and password for the session tokens.
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	// RefreshToken obtains a new bearer token and stores it in the session.
	RefreshToken(ctx context.Context) (string, error)
	// Credentials returns a snapshot of the session tokens.
	Credentials() Credentials
	// SetCredentials replaces every non-empty token of the session.
	SetCredentials(creds Credentials)
	// Identity returns the identity of the last explicit login.
	Identity() Identity

	Admin() AdminClient
	Vendors() VendorsClient
	Public() PublicClient
}

// AdminClient covers the admin endpoints. Every call is authenticated.
type AdminClient interface {
	ListAppsPaginated(ctx context.Context, opts AdminListOptions) ([]App, error)
	ListApps(ctx context.Context, filter string) ([]App, error)
	GetApp(ctx context.Context, id string, opts AdminGetOptions) (*App, error)
}

// VendorsClient covers the vendor-scoped app endpoints. Every call is authenticated.
type VendorsClient interface {
	ListAppsPaginated(ctx context.Context, vendor string, opts ListOptions) ([]App, error)
	ListApps(ctx context.Context, vendor string) ([]App, error)
	GetApp(ctx context.Context, vendor, id string) (*App, error)
	CreateApp(ctx context.Context, vendor string, req *AppCreateRequest) (*App, error)
	UpdateApp(ctx context.Context, vendor, id string, req *AppUpdateRequest) (*App, error)
	GetAppRepository(ctx context.Context, vendor, id string) (*RepositoryCredentials, error)
}

// PublicClient covers the catalog endpoints that need no authentication.
type PublicClient interface {
	ListVendorsPaginated(ctx context.Context, opts ListOptions) ([]Vendor, error)
	ListVendors(ctx context.Context) ([]Vendor, error)
	GetApp(ctx context.Context, appID string) (*App, error)
}

// CredentialsPersister receives the session tokens after every login and refresh.
// ExpiresAt is the bearer token expiry, zero when it cannot be determined.
type CredentialsPersister interface {
	UpdateCredentials(creds Credentials, expiresAt time.Time) error
}

// Config represents client configuration for building a devportal.Client.
//
// # Authentication
//
// Credentials may be injected here, for example tokens stored by the CLI.
// Without a bearer token every authenticated call fails with a user error
// until Login is called. On HTTP 401 the client refreshes the bearer token
// with the refresh token and re-issues the call, at most five times.
type Config struct {
	// BaseURL: API endpoint. A trailing slash is appended when missing.
	// A blank value is rejected with a user error.
	BaseURL string `validate:"required,url"`

	// Credentials: initial session tokens.
	Credentials Credentials

	// HTTPClient: optional pre-configured client (proxy, TLS, custom RoundTripper).
	// Its cookie jar is replaced when nil.
	HTTPClient *http.Client
	// Timeout: per request timeout, 600s when zero.
	Timeout time.Duration `validate:"gte=0"`
	// RateLimit: client side requests per second limit, disabled when zero.
	RateLimit float64 `validate:"gte=0"`
	// RequestsBurst: burst size used with RateLimit.
	RequestsBurst int `validate:"gte=0"`

	// Persister: optional hook notified after login and refresh.
	Persister CredentialsPersister

	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
}

// DefaultConfig returns a configuration pointing to the production API.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
	}
}
