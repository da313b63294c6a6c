package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/moviedb/internal/errs"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate the static website once",
		Long: `Render the collection into an HTML page and exit.

Example:
  moviedb export
  moviedb export --out /var/www/movies/index.html`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output path (defaults to SITE_OUTPUT)")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	app, err := bootstrap(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	out := opts.Output
	if out == "" {
		out = app.Config.SiteOutput
	}
	path, err := app.Manager.ExportTo(cmd.Context(), out)
	if err != nil {
		app.Logger.Printf("cli: export: %v", err)
		app.Reporter.Capture(err, map[string]string{"op": "export"})
		return NewExitError(ExitFailure, errs.ErrorMessage(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Website was generated successfully: %s\n", path)
	return nil
}
