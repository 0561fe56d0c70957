package client_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/keboola/developer-portal-client-go/internal/client"
	dphttp "github.com/keboola/developer-portal-client-go/internal/http"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"github.com/stretchr/testify/require"
)

// recordedCall is one request seen by the test server.
type recordedCall struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	Body          map[string]any
}

// testServer records every call and delegates the answer to handle.
type testServer struct {
	*httptest.Server

	mu     sync.Mutex
	calls  []recordedCall
	handle func(w http.ResponseWriter, call recordedCall, n int)
}

func newTestServer(t *testing.T, handle func(w http.ResponseWriter, call recordedCall, n int)) *testServer {
	t.Helper()

	server := &testServer{handle: handle}
	server.Server = httptest.NewServer(http.HandlerFunc(server.serve))
	t.Cleanup(server.Close)

	return server
}

func (s *testServer) serve(w http.ResponseWriter, r *http.Request) {
	call := recordedCall{
		Method:        r.Method,
		Path:          r.URL.EscapedPath(),
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
	}

	data, _ := io.ReadAll(r.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &call.Body)
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	n := len(s.calls)
	s.mu.Unlock()

	s.handle(w, call, n)
}

func (s *testServer) Calls() []recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]recordedCall(nil), s.calls...)
}

func (s *testServer) CallsTo(path string) []recordedCall {
	var matching []recordedCall

	for _, call := range s.Calls() {
		if call.Path == path {
			matching = append(matching, call)
		}
	}

	return matching
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type zeroRand struct{}

func (zeroRand) Int64N(int64) int64 { return 0 }

// newTestClient creates a client with production retry semantics and millisecond delays.
func newTestClient(t *testing.T, baseURL string, creds devportal.Credentials) *client.Client {
	t.Helper()

	chain := dphttp.NewChain(
		dphttp.ThrottleRule(time.Millisecond, time.Millisecond, zeroRand{}),
		dphttp.TransientRule(5, time.Millisecond),
	)

	c, err := client.New(&devportal.Config{BaseURL: baseURL, Credentials: creds}, dphttp.WithRetryChain(chain))
	require.NoError(t, err)

	return c
}

// appsPage returns count apps numbered from offset.
func appsPage(offset, count int) []map[string]any {
	apps := make([]map[string]any, 0, count)
	for i := offset; i < offset+count; i++ {
		apps = append(apps, map[string]any{"id": "app-" + strconv.Itoa(i), "name": "App", "type": "extractor"})
	}

	return apps
}
