// Package http is the transport of the developer portal client. It resolves
// paths against the base URL, encodes parameters, runs every logical request
// through the retry chain and reports non-2xx responses as errors.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"github.com/spf13/cast"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Client is the HTTP client for the developer portal API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	chain      *Chain
	limiter    *rate.Limiter
	logger     devportal.Logger
	debug      bool
	userAgent  string
	timeout    time.Duration
}

// Request represents one logical API request.
type Request struct {
	Method string
	Path   string
	// Params go to the query string for GET and DELETE, to a JSON body otherwise.
	Params devportal.Params
	// Headers fully replace the default headers when non-empty.
	Headers map[string]string
}

// Response represents a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Value parses the body into a generic JSON value. An empty body yields nil.
func (r *Response) Value() (any, error) {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}

	var value any

	err := json.Unmarshal(r.Body, &value)
	if err != nil {
		return nil, fmt.Errorf("parsing response body: %w", err)
	}

	return value, nil
}

// Decode parses the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}

	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("parsing response body: %w", err)
	}

	return nil
}

// NewClient creates a new HTTP client. A blank or malformed base URL is
// rejected with a user error before any network activity.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL:   base,
		chain:     DefaultChain(),
		logger:    devportal.NopLogger{},
		userAgent: constants.DefaultUserAgent,
		timeout:   constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = cleanhttp.DefaultPooledClient()
	}

	if client.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}

		client.httpClient.Jar = jar
	}

	client.httpClient.Timeout = client.timeout

	if client.limiter != nil {
		base := client.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}

		client.httpClient.Transport = &rateLimitedTransport{base: base, limiter: client.limiter}
	}

	return client, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	invalid := devportal.NewUserError(fmt.Sprintf(constants.MsgInvalidEndpoint, raw))

	if strings.TrimSpace(raw) == "" {
		return nil, invalid
	}

	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}

	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, invalid
	}

	return base, nil
}

// BaseURL returns the normalized base URL, always ending with a slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do executes one logical request. The retry chain may issue several
// attempts; only the final outcome is returned. A final status outside the
// 2xx range yields the response together with a *devportal.HTTPError.
// A failure without any response is returned unmodified.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	target, err := c.resolve(req)
	if err != nil {
		return nil, err
	}

	var body interface{}

	if len(req.Params) > 0 && !usesQuery(req.Method) {
		encoded, err := json.Marshal(req.Params)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		body = encoded
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.setHeaders(httpReq.Request, req.Headers, body != nil)

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     target.String(),
			"headers": headerFields(httpReq.Header),
		})
	}

	start := time.Now()
	state := c.chain.newState()

	retryClient := &retryablehttp.Client{
		HTTPClient:   c.httpClient,
		Logger:       leveledLogger{logger: c.logger},
		RetryMax:     math.MaxInt32,
		CheckRetry:   state.checkRetry,
		Backoff:      state.backoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	httpResp, err := retryClient.Do(httpReq)
	if err != nil {
		if httpResp != nil && httpResp.Body != nil {
			_ = httpResp.Body.Close()
		}

		return nil, err
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
			"size":     len(respBody),
		})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, &devportal.HTTPError{
			Method:     req.Method,
			URL:        target.String(),
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, params devportal.Params) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Params: params})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, params devportal.Params) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Params: params})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, params devportal.Params) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Params: params})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, params devportal.Params) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Params: params})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func usesQuery(method string) bool {
	return method == http.MethodGet || method == http.MethodDelete
}

// resolve joins the request path with the base URL and merges query parameters.
func (c *Client) resolve(req *Request) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(req.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", req.Path, err)
	}

	target := c.baseURL.ResolveReference(ref)

	if len(req.Params) == 0 || !usesQuery(req.Method) {
		return target, nil
	}

	query := target.Query()

	for key, value := range req.Params {
		err := addQueryValue(query, key, value)
		if err != nil {
			return nil, err
		}
	}

	target.RawQuery = query.Encode()

	return target, nil
}

func addQueryValue(query url.Values, key string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		for _, item := range v {
			query.Add(key, item)
		}

		return nil
	case []any:
		for _, item := range v {
			err := addQueryValue(query, key, item)
			if err != nil {
				return err
			}
		}

		return nil
	}

	str, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Errorf("encoding query parameter %q: %w", key, err)
	}

	query.Add(key, str)

	return nil
}

func (c *Client) setHeaders(req *http.Request, headers map[string]string, hasBody bool) {
	req.Header.Set(constants.HeaderUserAgent, c.userAgent)

	if len(headers) == 0 {
		req.Header.Set(constants.HeaderAccept, constants.MediaTypeJSON)
		req.Header.Set(constants.HeaderContentType, constants.MediaTypeJSONUTF8)

		return
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if hasBody && req.Header.Get(constants.HeaderContentType) == "" {
		req.Header.Set(constants.HeaderContentType, constants.MediaTypeJSON)
	}
}

func headerFields(header http.Header) map[string]interface{} {
	fields := make(map[string]interface{}, len(header))
	for key := range header {
		fields[key] = header.Get(key)
	}

	return devportal.MaskFields(fields)
}

type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	err := t.limiter.Wait(req.Context())
	if err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	return t.base.RoundTrip(req)
}

// leveledLogger adapts devportal.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger devportal.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keyValueFields(keysAndValues))
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keyValueFields(keysAndValues))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keyValueFields(keysAndValues))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keyValueFields(keysAndValues))
}

func keyValueFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[cast.ToString(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
