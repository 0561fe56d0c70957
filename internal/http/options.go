package http

import (
	"net/http"
	"time"

	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"golang.org/x/time/rate"
)

// Option configures the HTTP client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger devportal.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout sets the per attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient uses a pre-configured client for proxy, TLS or transport settings.
// The client is copied; a cookie jar is added when it has none.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			clone := *httpClient
			c.httpClient = &clone
		}
	}
}

// WithRetryChain replaces the retry policy.
func WithRetryChain(chain *Chain) Option {
	return func(c *Client) {
		if chain != nil {
			c.chain = chain
		}
	}
}

// WithRateLimit limits outgoing attempts to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}

		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}
