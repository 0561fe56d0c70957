package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	setupConfig(t)

	cmd := NewRootCommand("1.0.0", "abc123", "2026-01-01")
	assert.Equal(t, "devportal", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	requireSubcommands(t, cmd, "version", "login", "logout", "token", "config", "admin", "vendors", "apps")

	for _, name := range []string{"config", "url", "token", "output", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "Flag %s should exist", name)
	}

	admin := findSubcommand(findSubcommand(cmd, "admin"), "apps")
	require.NotNil(t, admin)
	requireSubcommands(t, admin, "list", "get")

	vendorApps := findSubcommand(findSubcommand(cmd, "vendors"), "apps")
	require.NotNil(t, vendorApps)
	requireSubcommands(t, vendorApps, "list", "get", "create", "update", "repository")
}

func TestVersionCommand(t *testing.T) {
	setupConfig(t)
	viper.Set(keyOutput, constants.FormatJSON)

	out, err := runCommand(t, NewVersionCommand("1.0.0", "abc123", "2026-01-01"))
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, VersionInfo{Version: "1.0.0", Commit: "abc123", Built: "2026-01-01"}, info)
}

func TestRender(t *testing.T) {
	setupConfig(t)

	data := map[string]string{"key": "value"}
	table := func(w io.Writer) error {
		_, err := io.WriteString(w, "table")

		return err
	}

	tests := []struct {
		format string
		want   string
	}{
		{"", "table"},
		{constants.FormatTable, "table"},
		{constants.FormatJSON, "{\n  \"key\": \"value\"\n}\n"},
		{constants.FormatYAML, "key: value\n"},
	}

	for _, tt := range tests {
		viper.Set(keyOutput, tt.format)

		var out bytes.Buffer
		require.NoError(t, render(&out, data, table), tt.format)
		assert.Equal(t, tt.want, out.String(), tt.format)
	}

	viper.Set(keyOutput, "xml")
	require.ErrorIs(t, render(io.Discard, data, table), constants.ErrInvalidOutputFormat)
}

func TestRenderTable(t *testing.T) {
	var out bytes.Buffer

	err := renderTable(&out, []string{"Property", "Value"}, [][]string{{"Name", "writer"}})
	require.NoError(t, err)

	assert.Contains(t, strings.ToUpper(out.String()), "PROPERTY")
	assert.Contains(t, out.String(), "writer")
}

func TestBuildTokenStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)

		return &v
	}

	t.Run("valid", func(t *testing.T) {
		status := buildTokenStatus(&Config{Token: "t", RefreshToken: "r", TokenExpiresAt: at(time.Hour)}, now)
		assert.True(t, status.Authenticated)
		assert.True(t, status.HasRefreshToken)
		assert.False(t, status.Expired)
		assert.False(t, status.ExpiringSoon)
		assert.Equal(t, "1h0m0s", status.ExpiresIn)
	})

	t.Run("expiring soon", func(t *testing.T) {
		status := buildTokenStatus(&Config{Token: "t", TokenExpiresAt: at(time.Minute)}, now)
		assert.False(t, status.Expired)
		assert.True(t, status.ExpiringSoon)
	})

	t.Run("expired", func(t *testing.T) {
		status := buildTokenStatus(&Config{Token: "t", TokenExpiresAt: at(-time.Minute)}, now)
		assert.True(t, status.Expired)
		assert.False(t, status.ExpiringSoon)
		assert.Empty(t, status.ExpiresIn)
	})

	t.Run("opaque token", func(t *testing.T) {
		status := buildTokenStatus(&Config{Token: "not-a-jwt"}, now)
		assert.True(t, status.Authenticated)
		assert.Nil(t, status.ExpiresAt)
	})
}

func TestTokenStatusRequiresLogin(t *testing.T) {
	setupConfig(t)

	_, err := runCommand(t, NewTokenCommand(), "status")
	require.ErrorIs(t, err, constants.ErrNotAuthenticated)
}

func TestTokenRefreshRequiresRefreshToken(t *testing.T) {
	setupConfig(t)
	require.NoError(t, saveConfigStruct(&Config{Token: "t"}))

	_, err := runCommand(t, NewTokenCommand(), "refresh")
	require.ErrorIs(t, err, constants.ErrNoRefreshToken)
}

func TestDecodeDocument(t *testing.T) {
	doc := map[string]any{
		"id":       "keboola.ex-demo",
		"name":     "Demo",
		"features": []any{"dev-branch-aware"},
	}

	var decoded struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	extra, err := decodeDocument(doc, &decoded, "id", "name")
	require.NoError(t, err)

	assert.Equal(t, "keboola.ex-demo", decoded.ID)
	assert.Equal(t, "Demo", decoded.Name)
	assert.Equal(t, map[string]any{"features": []any{"dev-branch-aware"}}, extra)
}

func TestLoginCommand(t *testing.T) {
	setupConfig(t)

	server := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})

			return
		}

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		if body["email"] != "dev@example.com" || body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})

			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"token":        "bearer",
			"accessToken":  "access",
			"refreshToken": "refresh",
		})
	})

	viper.Set(keyURL, server.URL)

	out, err := runCommand(t, NewLoginCommand(), "-u", "dev@example.com", "-p", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as dev@example.com")

	config := loadConfig()
	assert.Equal(t, "bearer", config.Token)
	assert.Equal(t, "access", config.AccessToken)
	assert.Equal(t, "refresh", config.RefreshToken)
	assert.Equal(t, "dev@example.com", config.Username)

	_, err = runCommand(t, NewLogoutCommand())
	require.NoError(t, err)

	config = loadConfig()
	assert.Empty(t, config.Token)
	assert.Empty(t, config.RefreshToken)
	assert.Equal(t, "dev@example.com", config.Username)
}

func TestLoginCommandRejected(t *testing.T) {
	setupConfig(t)

	server := newAPIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	})

	viper.Set(keyURL, server.URL)

	_, err := runCommand(t, NewLoginCommand(), "-u", "dev@example.com", "-p", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Auth error when calling uri auth/login")
	assert.Empty(t, loadConfig().Token)
}

func TestAdminAppsGetCommand(t *testing.T) {
	setupConfig(t)

	var calls atomic.Int32

	server := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.Header.Get("Authorization") != "bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Expired"})

			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/admin/apps/")
		writeJSON(w, http.StatusOK, map[string]any{
			"id":        id,
			"name":      "App " + id,
			"type":      "extractor",
			"version":   3,
			"published": r.URL.Query().Get("published"),
		})
	})

	require.NoError(t, saveConfigStruct(&Config{URL: server.URL, Token: "bearer"}))
	viper.Set(keyOutput, constants.FormatJSON)

	out, err := runCommand(t, NewAdminCommand(), "apps", "get", "app-1", "app-2", "app-3", "--published")
	require.NoError(t, err)

	var apps []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &apps))
	require.Len(t, apps, 3)

	for i, id := range []string{"app-1", "app-2", "app-3"} {
		assert.Equal(t, id, apps[i]["id"])
		assert.Equal(t, "true", apps[i]["published"])
	}

	assert.Equal(t, int32(3), calls.Load())
}

func TestAdminAppsListRequiresLogin(t *testing.T) {
	setupConfig(t)

	_, err := runCommand(t, NewAdminCommand(), "apps", "list")
	require.ErrorIs(t, err, constants.ErrNotAuthenticated)
}

func TestVendorAppsUpdateTag(t *testing.T) {
	setupConfig(t)

	var patched map[string]any

	server := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		app := map[string]any{
			"id":   "keboola.ex-demo",
			"name": "Demo",
			"type": "extractor",
			"repository": map[string]any{
				"type": "ecr",
				"uri":  "147946154733.dkr.ecr.us-east-1.amazonaws.com/developer-portal-v2/keboola.ex-demo",
				"tag":  "1.0.0",
			},
		}

		if r.Method == http.MethodPatch {
			_ = json.NewDecoder(r.Body).Decode(&patched)
			app["repository"] = patched["repository"]
		}

		writeJSON(w, http.StatusOK, app)
	})

	require.NoError(t, saveConfigStruct(&Config{URL: server.URL, Token: "bearer"}))
	viper.Set(keyOutput, constants.FormatJSON)

	_, err := runCommand(t, NewVendorsCommand(), "apps", "update", "keboola", "keboola.ex-demo", "--tag", "1.1.0")
	require.NoError(t, err)

	require.NotNil(t, patched)

	repository, ok := patched["repository"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ecr", repository["type"])
	assert.Equal(t, "1.1.0", repository["tag"])
	assert.NotContains(t, patched, "name")
}

func TestVendorAppsUpdateRequiresInput(t *testing.T) {
	setupConfig(t)
	require.NoError(t, saveConfigStruct(&Config{Token: "bearer"}))

	_, err := runCommand(t, NewVendorsCommand(), "apps", "update", "keboola", "keboola.ex-demo")
	require.ErrorIs(t, err, constants.ErrNoInput)
}
