package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetlink/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Port:            3001,
		InteractiveAuth: true,
		RequestTimeout:  30 * time.Second,
		AuthTimeout:     5 * time.Minute,
		LogLevel:        "info",
		LogFormat:       "text",
		MetricsEnabled:  true,
		MetricsAddr:     ":9090",
		RateLimitBurst:  5,
	}
}

func TestApplyServeFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "8080", "--mcp", "--debug"}))

	cfg := baseConfig()
	cfg.RootRedirect = true
	cfg.MetricsAddr = ":9999"

	var flags serveFlags
	flags.transport = transportHTTP
	flags.port, _ = cmd.Flags().GetInt("port")
	flags.mcp, _ = cmd.Flags().GetBool("mcp")
	flags.debug, _ = cmd.Flags().GetBool("debug")
	flags.rootRedirect, _ = cmd.Flags().GetBool("root-redirect")
	flags.metricsAddr, _ = cmd.Flags().GetString("metrics-addr")

	require.NoError(t, applyServeFlags(cmd, &flags, cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.MCPEnabled)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.RootRedirect, "unset flag must not reset the environment value")
	assert.Equal(t, ":9999", cfg.MetricsAddr)
}

func TestApplyServeFlags_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags serveFlags
	}{
		{
			name:  "unknown transport",
			flags: serveFlags{transport: "sse"},
		},
		{
			name:  "port out of range",
			args:  []string{"--port", "70000"},
			flags: serveFlags{transport: transportHTTP, port: 70000},
		},
		{
			name:  "zero request timeout",
			args:  []string{"--request-timeout", "0s"},
			flags: serveFlags{transport: transportHTTP},
		},
		{
			name:  "negative rate limit",
			args:  []string{"--rate-limit=-2"},
			flags: serveFlags{transport: transportHTTP, rateLimit: -2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newServeCmd()
			require.NoError(t, cmd.Flags().Parse(tt.args))

			flags := tt.flags
			assert.Error(t, applyServeFlags(cmd, &flags, baseConfig()))
		})
	}
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Google Meet Tools", getCategoryFromToolName("meet_create_space"))
	assert.Equal(t, "Other", getCategoryFromToolName("something"))
	assert.Equal(t, "Other", getCategoryFromToolName(""))
}
