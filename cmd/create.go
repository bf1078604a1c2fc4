package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/meetlink/internal/config"
	"github.com/teemow/meetlink/internal/server"
)

func newCreateCmd() *cobra.Command {
	var (
		noBrowser bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a Google Meet space and print its join URL",
		Long: `Create one Google Meet space with the configured credential strategy and
print its join URL. Uses the same configuration as serve.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runCreate(ctx, cmd, cfg, !noBrowser, asJSON)
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
	cmd.Flags().BoolVar(&asJSON, "json", false, `Print {"meetUrl": "..."} instead of the bare URL`)

	return cmd
}

func runCreate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, openBrowser, asJSON bool) error {
	logger, err := newLogger(cfg, cmd.ErrOrStderr(), "create")
	if err != nil {
		return err
	}

	sc, err := newServerContext(ctx, cfg, newAuthorizer(cfg, openBrowser, logger), nil, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sc.Shutdown() }()

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout+cfg.AuthTimeout)
	defer cancel()

	space, err := sc.CreateMeeting(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", server.CreateMeetFailure, err)
	}

	if asJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"meetUrl": space.MeetingURI})
	}
	fmt.Fprintln(cmd.OutOrStdout(), space.MeetingURI)
	return nil
}
