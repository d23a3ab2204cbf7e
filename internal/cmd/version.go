package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/version"
)

func newVersionCmd(app *App) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd, false)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()

			if !app.textOutput() {
				return app.Print(info)
			}
			if verbose {
				_, err := fmt.Fprintln(app.Out, info.String())
				return err
			}
			_, err := fmt.Fprintf(app.Out, "journal %s\n", info.Short())
			return err
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	return cmd
}
