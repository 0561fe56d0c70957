package client_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/keboola/developer-portal-client-go/internal/client"
	dphttp "github.com/keboola/developer-portal-client-go/internal/http"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	t.Run("blank base URL", func(t *testing.T) {
		t.Parallel()

		c, err := client.New(&devportal.Config{BaseURL: ""})
		require.Error(t, err)
		assert.Nil(t, c)
		assert.True(t, devportal.IsUserError(err))
		assert.Equal(t, `The provided API endpoint URL "" is invalid.`, err.Error())
	})

	t.Run("malformed base URL", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(&devportal.Config{BaseURL: "not a url"})
		require.Error(t, err)
		assert.True(t, devportal.IsUserError(err))
		assert.Equal(t, `The provided API endpoint URL "not a url" is invalid.`, err.Error())
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(&devportal.Config{BaseURL: devportal.DefaultBaseURL, Timeout: -1})
		require.Error(t, err)
		assert.True(t, devportal.IsUserError(err))
		assert.Contains(t, err.Error(), "Timeout")
	})

	t.Run("nil config uses production endpoint", func(t *testing.T) {
		t.Parallel()

		c, err := client.New(nil)
		require.NoError(t, err)
		assert.Equal(t, devportal.DefaultBaseURL, c.BaseURL())
	})
}

func TestClient_Credentials(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "https://apps-api.keboola.com", devportal.Credentials{Token: "t", RefreshToken: "r"})

	assert.Equal(t, devportal.Credentials{Token: "t", RefreshToken: "r"}, c.Credentials())

	c.SetCredentials(devportal.Credentials{AccessToken: "a"})
	assert.Equal(t, devportal.Credentials{Token: "t", AccessToken: "a", RefreshToken: "r"}, c.Credentials())
	assert.Equal(t, devportal.Identity{}, c.Identity())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_AuthRequest(t *testing.T) {
	t.Parallel()

	t.Run("requires login", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
			writeJSON(w, http.StatusOK, []any{})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{})

		_, err := c.AuthRequest(context.Background(), http.MethodGet, "vendors/keboola/apps", nil)
		require.Error(t, err)
		assert.True(t, devportal.IsUserError(err))
		assert.Equal(t, "Call login for auth requests first", err.Error())
		assert.Empty(t, server.Calls())
	})

	t.Run("sends raw token as the only authorization", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
			writeJSON(w, http.StatusOK, []any{})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{Token: "id-token"})

		_, err := c.AuthRequest(context.Background(), http.MethodGet, "vendors/keboola/apps", nil)
		require.NoError(t, err)

		calls := server.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "id-token", calls[0].Authorization)
	})

	t.Run("refreshes once on 401", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, call recordedCall, _ int) {
			switch {
			case call.Path == "/auth/token":
				assert.Equal(t, "refresh-token", call.Authorization)
				writeJSON(w, http.StatusOK, map[string]string{"token": "new-token"})
			case call.Authorization == "new-token":
				writeJSON(w, http.StatusOK, map[string]string{"id": "app"})
			default:
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired"})
			}
		})
		c := newTestClient(t, server.URL, devportal.Credentials{Token: "old-token", RefreshToken: "refresh-token"})

		resp, err := c.AuthRequest(context.Background(), http.MethodGet, "vendors/keboola/apps/app", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		assert.Len(t, server.CallsTo("/auth/token"), 1)

		appCalls := server.CallsTo("/vendors/keboola/apps/app")
		require.Len(t, appCalls, 2)
		assert.Equal(t, "old-token", appCalls[0].Authorization)
		assert.Equal(t, "new-token", appCalls[1].Authorization)
		assert.Equal(t, "new-token", c.Credentials().Token)
		assert.Equal(t, "refresh-token", c.Credentials().RefreshToken)
	})

	t.Run("gives up after five refreshes", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, call recordedCall, _ int) {
			if call.Path == "/auth/token" {
				writeJSON(w, http.StatusOK, map[string]string{"token": "still-rejected"})

				return
			}

			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "nope"})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{Token: "t", RefreshToken: "r"})

		resp, err := c.AuthRequest(context.Background(), http.MethodGet, "admin/apps", nil)
		require.Error(t, err)
		assert.Nil(t, resp)

		assert.Len(t, server.CallsTo("/auth/token"), 5)
		assert.Len(t, server.CallsTo("/admin/apps"), 6)

		var httpErr *devportal.HTTPError

		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 401, httpErr.StatusCode)

		var apiErr *devportal.Error

		assert.False(t, errors.As(err, &apiErr), "the last 401 is returned unwrapped")
		assert.True(t, devportal.IsUnauthorized(err))
	})

	t.Run("401 from refresh endpoint is an auth error", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid"})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{Token: "t", RefreshToken: "revoked"})

		_, err := c.AuthRequest(context.Background(), http.MethodGet, "admin/apps", nil)
		require.Error(t, err)
		assert.True(t, devportal.IsAuthError(err))
		assert.Equal(t, `Auth error when calling uri auth/token. Response: {"message":"invalid"}`, err.Error())
		assert.Len(t, server.CallsTo("/auth/token"), 1)
		assert.Len(t, server.CallsTo("/admin/apps"), 1)
	})

	t.Run("refresh without refresh token and identity", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{Token: "t"})

		_, err := c.AuthRequest(context.Background(), http.MethodGet, "admin/apps", nil)
		require.Error(t, err)
		assert.True(t, devportal.IsUserError(err))
		assert.Len(t, server.Calls(), 1)
	})

	t.Run("other statuses become remote errors", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
			writeJSON(w, http.StatusNotFound, map[string]string{"errorMessage": "Vendor badvendor does not exist"})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{Token: "t"})

		_, err := c.AuthRequest(context.Background(), http.MethodGet, "vendors/badvendor/apps", nil)
		require.Error(t, err)

		var apiErr *devportal.Error

		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, devportal.KindRemote, apiErr.Kind)
		assert.Equal(t, 404, apiErr.StatusCode)
		assert.Equal(t, "vendors/badvendor/apps", apiErr.Path)
		assert.Equal(t, map[string]any{"errorMessage": "Vendor badvendor does not exist"}, apiErr.Response())

		var httpErr *devportal.HTTPError

		require.ErrorAs(t, err, &httpErr, "the transport failure is the cause")
		assert.Len(t, server.Calls(), 1)
	})

	t.Run("persistent server error after retries", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{Token: "t"})

		_, err := c.AuthRequest(context.Background(), http.MethodGet, "admin/apps", nil)
		require.Error(t, err)
		assert.True(t, devportal.IsRemoteError(err))
		assert.Equal(t, 500, devportal.StatusCode(err))
		assert.Len(t, server.Calls(), 6)
	})

	t.Run("transport failure is returned unchanged", func(t *testing.T) {
		t.Parallel()

		transportErr := errors.New("connection refused")
		httpClient := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, transportErr
		})}

		c, err := client.New(
			&devportal.Config{BaseURL: "http://portal.invalid", Credentials: devportal.Credentials{Token: "t"}, HTTPClient: httpClient},
			dphttp.WithRetryChain(dphttp.NewChain()),
		)
		require.NoError(t, err)

		_, err = c.AuthRequest(context.Background(), http.MethodGet, "admin/apps", nil)
		require.ErrorIs(t, err, transportErr)

		var apiErr *devportal.Error

		assert.False(t, errors.As(err, &apiErr))
	})

	t.Run("concurrent calls share the refreshed token", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, call recordedCall, _ int) {
			switch {
			case call.Path == "/auth/token":
				writeJSON(w, http.StatusOK, map[string]string{"token": "fresh"})
			case call.Authorization == "fresh":
				writeJSON(w, http.StatusOK, []any{})
			default:
				writeJSON(w, http.StatusUnauthorized, map[string]string{})
			}
		})
		c := newTestClient(t, server.URL, devportal.Credentials{Token: "stale", RefreshToken: "r"})

		var wg sync.WaitGroup

		errs := make([]error, 8)

		for i := range errs {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				_, errs[i] = c.AuthRequest(context.Background(), http.MethodGet, "admin/apps", nil)
			}(i)
		}

		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}

		assert.Equal(t, "fresh", c.Credentials().Token)
	})
}

func TestClient_Request(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		status int
		kind   devportal.ErrorKind
	}{
		{name: "login 401 is auth error", path: "auth/login", status: 401, kind: devportal.KindAuth},
		{name: "login 403 is remote error", path: "auth/login", status: 403, kind: devportal.KindRemote},
		{name: "login 422 is remote error", path: "auth/login", status: 422, kind: devportal.KindRemote},
		{name: "public 401 is remote error", path: "vendors", status: 401, kind: devportal.KindRemote},
		{name: "public 404 is remote error", path: "apps/unknown", status: 404, kind: devportal.KindRemote},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
				writeJSON(w, tt.status, map[string]string{"message": "failed"})
			})
			c := newTestClient(t, server.URL, devportal.Credentials{Token: "t", RefreshToken: "r"})

			_, err := c.Request(context.Background(), http.MethodPost, tt.path, devportal.Params{"a": "b"}, nil)
			require.Error(t, err)

			var apiErr *devportal.Error

			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.path, apiErr.Path)
			assert.Len(t, server.Calls(), 1, "unauthenticated calls never refresh")
		})
	}
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, call recordedCall, _ int) {
			assert.Equal(t, map[string]any{"email": "dev@example.com", "password": "secret"}, call.Body)
			writeJSON(w, http.StatusOK, map[string]string{"token": "id", "accessToken": "access", "refreshToken": "refresh"})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{})

		resp, err := c.Login(context.Background(), "dev@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, "id", resp.Token)
		assert.Equal(t, devportal.Credentials{Token: "id", AccessToken: "access", RefreshToken: "refresh"}, c.Credentials())
		assert.Equal(t, "dev@example.com", c.Identity().Username)

		calls := server.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "/auth/login", calls[0].Path)
		assert.Empty(t, calls[0].Authorization)
	})

	t.Run("200 without token", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{})

		_, err := c.Login(context.Background(), "dev@example.com", "secret")
		require.Error(t, err)
		assert.True(t, devportal.IsAuthError(err))
		assert.Contains(t, err.Error(), "Missing token")
	})

	t.Run("bad credentials", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(w http.ResponseWriter, _ recordedCall, _ int) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Incorrect username or password."})
		})
		c := newTestClient(t, server.URL, devportal.Credentials{})

		_, err := c.Login(context.Background(), "dev@example.com", "wrong")
		require.Error(t, err)
		assert.True(t, devportal.IsAuthError(err))
		assert.Equal(t, 401, devportal.StatusCode(err))
		assert.Len(t, server.Calls(), 1)
	})
}

func TestClient_RefreshToken(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, call recordedCall, _ int) {
		assert.Equal(t, http.MethodGet, call.Method)
		assert.Equal(t, "/auth/token", call.Path)
		assert.Equal(t, "refresh", call.Authorization)
		writeJSON(w, http.StatusOK, map[string]string{"token": "new"})
	})
	c := newTestClient(t, server.URL, devportal.Credentials{Token: "old", AccessToken: "access", RefreshToken: "refresh"})

	token, err := c.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", token)
	assert.Equal(t, devportal.Credentials{Token: "new", AccessToken: "access", RefreshToken: "refresh"}, c.Credentials())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
