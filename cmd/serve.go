package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetlink/internal/config"
	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/server"
	"github.com/teemow/meetlink/internal/tools/meet_tools"
)

const (
	transportHTTP  = "http"
	transportStdio = "stdio"

	gracefulShutdownTimeout = 30 * time.Second
	startupTimeout          = 5 * time.Second
)

// serveFlags mirrors the config values serve can override. A flag only
// wins over the environment when it was explicitly set.
type serveFlags struct {
	transport          string
	port               int
	mcp                bool
	rootRedirect       bool
	credentialStrategy string
	credentialsFile    string
	tokenFile          string
	interactiveAuth    bool
	callbackPort       int
	requestTimeout     time.Duration
	noBrowser          bool
	debug              bool
	logFormat          string
	metricsEnabled     bool
	metricsAddr        string
	rateLimit          float64
	trustProxy         bool
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the meetlink server",
		Long: `Start the HTTP server that creates Google Meet spaces.

Routes:
  GET /                 liveness text (or a redirect with --root-redirect)
  GET /api/create-meet  creates a space and returns {"meetUrl": "..."}
  /mcp                  MCP streamable HTTP transport (with --mcp)
  /healthz, /readyz     health probes

Credentials:
  file strategy (default): reads the token cached at GOOGLE_TOKEN_PATH and
    runs the browser consent flow on first use when INTERACTIVE_AUTH is true.
  static strategy: uses GOOGLE_CREDENTIALS and GOOGLE_TOKEN from the
    environment and never prompts.

Supports two transport types:
  - http: the HTTP server above (default)
  - stdio: the MCP server over standard input/output, no HTTP listener`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if err := applyServeFlags(cmd, &flags, cfg); err != nil {
				return err
			}
			return runServe(cfg, flags)
		},
	}

	cmd.Flags().StringVar(&flags.transport, "transport", transportHTTP, "Transport type: http or stdio")
	cmd.Flags().IntVar(&flags.port, "port", 3001, "HTTP listen port. Can also use PORT env var.")
	cmd.Flags().BoolVar(&flags.mcp, "mcp", false, "Mount the MCP streamable HTTP transport at /mcp. Can also use MCP_ENABLED env var.")
	cmd.Flags().BoolVar(&flags.rootRedirect, "root-redirect", false, "Redirect GET / to /api/create-meet. Can also use ROOT_REDIRECT env var.")
	cmd.Flags().StringVar(&flags.credentialStrategy, "credential-strategy", "", "Credential strategy: file or static (default: static when GOOGLE_TOKEN is set). Can also use CREDENTIAL_STRATEGY env var.")
	cmd.Flags().StringVar(&flags.credentialsFile, "credentials-file", "credentials.json", "Client credentials file for the file strategy. Can also use GOOGLE_CREDENTIALS_PATH env var.")
	cmd.Flags().StringVar(&flags.tokenFile, "token-file", "token.json", "Token record file for the file strategy. Can also use GOOGLE_TOKEN_PATH env var.")
	cmd.Flags().BoolVar(&flags.interactiveAuth, "interactive-auth", true, "Run the browser consent flow when no token is cached. Can also use INTERACTIVE_AUTH env var.")
	cmd.Flags().IntVar(&flags.callbackPort, "callback-port", 0, "Loopback port for the consent redirect (0 picks a free port). Can also use OAUTH_CALLBACK_PORT env var.")
	cmd.Flags().DurationVar(&flags.requestTimeout, "request-timeout", server.DefaultRequestTimeout, "Deadline for one create request. Can also use REQUEST_TIMEOUT env var.")
	cmd.Flags().BoolVar(&flags.noBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json. Can also use LOG_FORMAT env var.")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().Float64Var(&flags.rateLimit, "rate-limit", 0, "Create requests per second per client (0 disables). Can also use RATE_LIMIT env var.")
	cmd.Flags().BoolVar(&flags.trustProxy, "trust-proxy", false, "Use X-Forwarded-For for rate limiting. Can also use TRUST_PROXY env var.")

	return cmd
}

// applyServeFlags copies explicitly set flags over cfg and revalidates.
func applyServeFlags(cmd *cobra.Command, flags *serveFlags, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if flags.transport != transportHTTP && flags.transport != transportStdio {
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", flags.transport)
	}
	if changed("port") {
		cfg.Port = flags.port
	}
	if changed("mcp") {
		cfg.MCPEnabled = flags.mcp
	}
	if changed("root-redirect") {
		cfg.RootRedirect = flags.rootRedirect
	}
	if changed("credential-strategy") {
		cfg.CredentialStrategy = flags.credentialStrategy
	}
	if changed("credentials-file") {
		cfg.CredentialsPath = flags.credentialsFile
	}
	if changed("token-file") {
		cfg.TokenPath = flags.tokenFile
	}
	if changed("interactive-auth") {
		cfg.InteractiveAuth = flags.interactiveAuth
	}
	if changed("callback-port") {
		cfg.CallbackPort = flags.callbackPort
	}
	if changed("request-timeout") {
		cfg.RequestTimeout = flags.requestTimeout
	}
	if flags.debug {
		cfg.LogLevel = "debug"
	}
	if changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if changed("metrics-enabled") {
		cfg.MetricsEnabled = flags.metricsEnabled
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.metricsAddr
	}
	if changed("rate-limit") {
		cfg.RateLimit = flags.rateLimit
	}
	if changed("trust-proxy") {
		cfg.TrustProxy = flags.trustProxy
	}

	return cfg.Validate()
}

func runServe(cfg *config.Config, flags serveFlags) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger(cfg, os.Stderr, "serve")
	if err != nil {
		return err
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("Error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverContext, err := newServerContext(shutdownCtx, cfg,
		newAuthorizer(cfg, !flags.noBrowser, logger), provider.Metrics(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("Error during server context shutdown", logging.Err(err))
		}
	}()
	logger.Info("Credential resolver ready", logging.Strategy(string(serverContext.Resolver().Strategy())))

	mcpSrv := newMCPServer(serverContext)

	if flags.transport == transportStdio {
		return runStdioServer(mcpSrv)
	}

	// Start metrics server if enabled and not in stdio mode
	if cfg.MetricsEnabled && provider.PrometheusHandler() != nil {
		metricsServer, err := startMetricsServer(cfg.MetricsAddr, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("Error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	var mcpHandler http.Handler
	if cfg.MCPEnabled {
		mcpHandler = mcpserver.NewStreamableHTTPServer(mcpSrv,
			mcpserver.WithEndpointPath(server.MCPPath),
		)
	}

	return runHTTPServer(shutdownCtx, serverContext, cfg, mcpHandler, logger)
}

func newMCPServer(sc *server.ServerContext) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("meetlink", version,
		mcpserver.WithToolCapabilities(true),
	)
	meet_tools.RegisterMeetTools(mcpSrv, sc)
	return mcpSrv
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger logging.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("Metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(startupTimeout):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runHTTPServer(ctx context.Context, sc *server.ServerContext, cfg *config.Config, mcpHandler http.Handler, logger logging.Logger) error {
	srv := server.New(sc, server.Config{
		Addr:           cfg.Addr(),
		RootRedirect:   cfg.RootRedirect,
		RequestTimeout: cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateLimitBurst,
		TrustProxy:     cfg.TrustProxy,
		MCPHandler:     mcpHandler,
	})

	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.StartWithReadySignal(ready); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
	case err := <-serverDone:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	}

	logger.Info(fmt.Sprintf("Server running at http://localhost:%d", cfg.Port))
	logger.Info(fmt.Sprintf("Visit http://localhost:%d%s to create a Google Meet URL", cfg.Port, server.CreateMeetPath))
	if mcpHandler != nil {
		logger.Info(fmt.Sprintf("MCP endpoint: http://localhost:%d%s", cfg.Port, server.MCPPath))
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
