package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API paths.
const (
	// PathLogin exchanges a username and password for the session tokens.
	PathLogin = "auth/login"

	// PathToken exchanges the refresh token for a new bearer token.
	PathToken = "auth/token"

	PathAdminApps = "admin/apps"
	PathVendors   = "vendors"
	PathApps      = "apps"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout bounds a single HTTP attempt.
	DefaultHTTPTimeout = 600 * time.Second
)

// Retry limits.
const (
	// TransientRetryMax is the number of retries for 5xx responses and transport errors.
	TransientRetryMax = 5

	// TransientRetryUnit is the first backoff delay, doubled on every retry.
	TransientRetryUnit = time.Second

	// ThrottleWaitMin and ThrottleWaitMax bound the random pause after HTTP 503.
	ThrottleWaitMin = 60 * time.Second
	ThrottleWaitMax = 600 * time.Second

	// AuthRetryBudget is the number of token refreshes per authenticated call.
	AuthRetryBudget = 5
)

// Pagination and concurrency limits.
const (
	// DefaultPageSize is the page size used by the auto-paginating list calls.
	DefaultPageSize = 1000

	// DefaultConcurrencyLimit limits concurrent operations.
	DefaultConcurrencyLimit = 3
)

// Headers.
const (
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"
	HeaderUserAgent     = "User-Agent"

	MediaTypeJSON     = "application/json"
	MediaTypeJSONUTF8 = "application/json; charset=utf-8"

	// DefaultUserAgent is sent unless overridden.
	DefaultUserAgent = "developer-portal-client-go/1.0"
)

// Output formats.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// CLI settings.
const (
	// ConfigDirName is the directory under the user home holding the CLI configuration.
	ConfigDirName = ".devportal"

	// ConfigFileName is the CLI configuration file inside ConfigDirName.
	ConfigFileName = "config.yml"

	// EnvPrefix prefixes the environment variables read by the CLI.
	EnvPrefix = "DEVPORTAL"

	// TokenExpiryWarning is how close to expiry a token is reported as expiring.
	TokenExpiryWarning = 5 * time.Minute

	// MinimumArgumentCount is the argument count of key/value commands.
	MinimumArgumentCount = 2
)

// User facing messages.
const (
	MsgInvalidEndpoint = "The provided API endpoint URL \"%s\" is invalid."
	MsgLoginRequired   = "Call login for auth requests first"
	MsgMissingToken    = "Missing token"
)
