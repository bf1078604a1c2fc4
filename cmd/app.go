package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/teemow/meetlink/internal/config"
	"github.com/teemow/meetlink/internal/google"
	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/meet"
	"github.com/teemow/meetlink/internal/server"
)

// envFile is the dotenv file every command loads first.
var envFile string

// newLogger builds the process logger and installs it as the slog default.
// Logs always go to w so stdout stays free for the stdio transport.
// Records are tagged with the running command.
func newLogger(cfg *config.Config, w io.Writer, command string) (*logging.SlogAdapter, error) {
	l, err := logging.New(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	l = logging.WithOperation(l, command)
	slog.SetDefault(l)
	return logging.NewSlogAdapter(l), nil
}

// newAuthorizer returns the interactive consent flow, or nil when
// interactive authorization is disabled.
func newAuthorizer(cfg *config.Config, openBrowser bool, logger logging.Logger) google.Authorizer {
	if !cfg.InteractiveAuth {
		return nil
	}
	a := &google.LoopbackAuthorizer{
		Port:   cfg.CallbackPort,
		Out:    os.Stderr,
		Logger: logger,
	}
	if openBrowser {
		a.OpenBrowser = openURL
	}
	return a
}

// newServerContext wires the credential resolver and the Meet client.
func newServerContext(ctx context.Context, cfg *config.Config, authorizer google.Authorizer, metrics *instrumentation.Metrics, logger logging.Logger) (*server.ServerContext, error) {
	resolver, err := google.NewResolver(google.ResolverConfig{
		Strategy:        cfg.CredentialStrategy,
		CredentialsJSON: cfg.GoogleCredentials,
		TokenJSON:       cfg.GoogleToken,
		CredentialsPath: cfg.CredentialsPath,
		TokenPath:       cfg.TokenPath,
		Authorizer:      authorizer,
		AuthTimeout:     cfg.AuthTimeout,
		Metrics:         metrics,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credential resolver: %w", err)
	}

	opts := []meet.Option{meet.WithMetrics(metrics), meet.WithLogger(logger)}
	if cfg.MeetEndpoint != "" {
		opts = append(opts, meet.WithEndpoint(cfg.MeetEndpoint))
	}

	return server.NewServerContext(ctx, resolver, meet.NewClient(opts...), metrics, logger)
}

// openURL opens url in the desktop browser.
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
