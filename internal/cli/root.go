// Package cli implements the moviedb command tree: the interactive menu,
// a one-shot site export and the HTTP server.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command. Without a subcommand it runs the
// interactive menu.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "moviedb",
		Short: "Personal movie collection manager",
		Long: `Keep a personal movie collection backed by OMDb metadata.

Without a subcommand moviedb opens the interactive menu. Configuration is
read from the environment and an optional .env file; OMDB_API_KEY is required.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, opts)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "write diagnostic logs to stderr")

	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func runMenu(cmd *cobra.Command, opts *RootOptions) error {
	app, err := bootstrap(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	menu := NewMenu(app.Manager, cmd.InOrStdin(), cmd.OutOrStdout(), app.Reporter, app.Logger)
	if err := menu.Run(cmd.Context()); err != nil {
		return WrapExitError(ExitFailure, "menu", err)
	}
	return nil
}

// Execute runs the command tree with the given arguments and streams and
// returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
