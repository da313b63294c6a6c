package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/moviedb/internal/config"
	httpserver "github.com/Clark-Hu/moviedb/internal/http"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection over HTTP",
		Long: `Run the JSON API and the live website until SIGINT or SIGTERM.

Write endpoints require "Authorization: Bearer $AUTH_TOKEN".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx, opts, cmd.ErrOrStderr(), config.Config.ValidateServe)
	if err != nil {
		return err
	}
	defer app.Close()

	server := httpserver.New(app.Config, app.Store, app.Manager, app.Site, app.Reporter, app.Logger)

	// Start shuts the listener down itself once ctx is cancelled.
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.Reporter.Capture(err, map[string]string{"op": "serve"})
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}
