package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/meetlink/internal/config"
	"github.com/teemow/meetlink/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		manual    bool
		noBrowser bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize meetlink and cache the token file",
		Long: `Run the OAuth consent flow once and write the resulting credential record
to GOOGLE_TOKEN_PATH, so that the file strategy can serve requests without
prompting.

By default a loopback listener receives the redirect. With --manual the
consent URL is printed and the code (or the full redirect URL) is read
from standard input instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runAuth(ctx, cmd, cfg, manual, !noBrowser, force)
		},
	}

	cmd.Flags().BoolVar(&manual, "manual", false, "Paste the authorization code instead of using a loopback listener")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing token file")

	return cmd
}

func runAuth(ctx context.Context, cmd *cobra.Command, cfg *config.Config, manual, openBrowser, force bool) error {
	logger, err := newLogger(cfg, cmd.ErrOrStderr(), "auth")
	if err != nil {
		return err
	}

	if force {
		if err := os.Remove(cfg.TokenPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", cfg.TokenPath, err)
		}
	}

	var authorizer google.Authorizer
	if manual {
		authorizer = &google.TerminalAuthorizer{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
	} else {
		cfg.InteractiveAuth = true
		authorizer = newAuthorizer(cfg, openBrowser, logger)
	}

	resolver, err := google.NewResolver(google.ResolverConfig{
		Strategy:        string(google.StrategyFile),
		CredentialsJSON: cfg.GoogleCredentials,
		CredentialsPath: cfg.CredentialsPath,
		TokenPath:       cfg.TokenPath,
		Authorizer:      authorizer,
		AuthTimeout:     cfg.AuthTimeout,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	if _, err := resolver.Resolve(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.TokenPath)
	return nil
}
