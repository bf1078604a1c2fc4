package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Config reads so host settings cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CREDENTIAL_STRATEGY", "GOOGLE_CREDENTIALS", "GOOGLE_TOKEN",
		"GOOGLE_CREDENTIALS_PATH", "GOOGLE_TOKEN_PATH", "INTERACTIVE_AUTH",
		"OAUTH_CALLBACK_PORT", "ROOT_REDIRECT", "REQUEST_TIMEOUT", "MEET_ENDPOINT",
		"LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED", "METRICS_ADDR",
		"AUTH_TIMEOUT", "RATE_LIMIT", "RATE_LIMIT_BURST", "TRUST_PROXY", "MCP_ENABLED",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Empty(t, cfg.CredentialStrategy)
	assert.Equal(t, "credentials.json", cfg.CredentialsPath)
	assert.Equal(t, "token.json", cfg.TokenPath)
	assert.True(t, cfg.InteractiveAuth)
	assert.Equal(t, 0, cfg.CallbackPort)
	assert.False(t, cfg.RootRedirect)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 5*time.Minute, cfg.AuthTimeout)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.False(t, cfg.TrustProxy)
	assert.False(t, cfg.MCPEnabled)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CREDENTIAL_STRATEGY", "static")
	t.Setenv("GOOGLE_TOKEN", `{"refresh_token":"r"}`)
	t.Setenv("ROOT_REDIRECT", "true")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("INTERACTIVE_AUTH", "false")
	t.Setenv("AUTH_TIMEOUT", "90s")
	t.Setenv("RATE_LIMIT", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "2")
	t.Setenv("TRUST_PROXY", "true")
	t.Setenv("MCP_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "static", cfg.CredentialStrategy)
	assert.Equal(t, `{"refresh_token":"r"}`, cfg.GoogleToken)
	assert.True(t, cfg.RootRedirect)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.InteractiveAuth)
	assert.Equal(t, 90*time.Second, cfg.AuthTimeout)
	assert.InDelta(t, 0.5, cfg.RateLimit, 1e-9)
	assert.Equal(t, 2, cfg.RateLimitBurst)
	assert.True(t, cfg.TrustProxy)
	assert.True(t, cfg.MCPEnabled)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=4000\nMEET_ENDPOINT=http://localhost:9999/\n"), 0o600))
	t.Setenv("PORT", "5000")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "http://localhost:9999/", cfg.MeetEndpoint)
	// godotenv sets variables directly; undo it for later tests.
	require.NoError(t, os.Unsetenv("MEET_ENDPOINT"))
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric port", "PORT", "abc"},
		{"port out of range", "PORT", "70000"},
		{"negative callback port", "OAUTH_CALLBACK_PORT", "-1"},
		{"bad timeout", "REQUEST_TIMEOUT", "soon"},
		{"zero timeout", "REQUEST_TIMEOUT", "0s"},
		{"bad bool", "ROOT_REDIRECT", "maybe"},
		{"zero auth timeout", "AUTH_TIMEOUT", "0s"},
		{"negative rate limit", "RATE_LIMIT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
