// Package cmd implements the journal command-line interface.
package cmd

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/errors"
)

func newRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "journal",
		Short: "Command-line client for the journal blog",
		Long: `journal talks to a journal blog server: articles, moments, the timeline,
site and user settings, and file uploads.

The session token obtained with 'journal auth login' is stored locally
(~/.journal/session.json by default) and sent with every request. When the
server rejects it, the session is cleared and you are asked to log in again.

Configuration is read from ~/.journal/config.yaml and JOURNAL_* environment
variables, e.g. JOURNAL_API_URL=https://blog.example.com.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd, true)
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.journal/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")
	flags.StringP("format", "o", "", "output format: text, json, yaml")
	flags.Bool("no-color", false, "disable colored messages")
	flags.Bool("ephemeral", false, "keep the session in memory for this invocation only")
	flags.Bool("metrics", false, "print client metrics to stderr after the command")

	root.AddCommand(
		newAuthCmd(app),
		newArticlesCmd(app),
		newMomentsCmd(app),
		newTimelineCmd(app),
		newSettingsCmd(app),
		newUploadCmd(app),
		newOpenCmd(app),
		newAdminCmd(app),
		newConfigCmd(app),
		newVersionCmd(app),
	)
	return root
}

// ExecuteContext runs the root command with ctx, reading arguments from os.Args
func ExecuteContext(ctx context.Context) error {
	return execute(ctx, NewApp(), nil)
}

func execute(ctx context.Context, app *App, args []string) error {
	root := newRootCmd(app)
	if args != nil {
		root.SetArgs(args)
	}

	start := time.Now()
	cmd, err := root.ExecuteContextC(ctx)
	app.finish(cmd, err, start)
	return err
}

func errorCode(err error) string {
	var jerr *errors.JournalError
	if stderrors.As(err, &jerr) {
		return string(jerr.Code)
	}
	return ""
}
