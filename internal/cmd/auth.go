package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/api"
	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/session"
	"github.com/felixgeelhaar/journal/internal/tui"
)

func newAuthCmd(app *App) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored session",
		Long: `Manage the session token used to talk to the journal server.

Subcommands:
  login   Exchange username and password for a token
  logout  Remove the stored token and user record
  status  Show the stored session without contacting the server
  whoami  Ask the server who the stored token belongs to

Examples:
  journal auth login --username admin
  journal auth status
  journal auth logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	authCmd.AddCommand(
		newAuthLoginCmd(app),
		newAuthLogoutCmd(app),
		newAuthStatusCmd(app),
		newAuthWhoamiCmd(app),
	)
	return authCmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	var creds tui.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with username and password. The returned token and user record are
stored locally and sent with every following request.

Missing credentials are prompted for when running in a terminal.

Examples:
  journal auth login
  journal auth login --username admin --password secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if creds.Username == "" || creds.Password == "" {
				if !tui.ShouldPrompt() {
					return fmt.Errorf("required flag(s) \"username\" and \"password\" not set")
				}
				prompted, err := tui.PromptForCredentials(creds)
				if err != nil {
					return err
				}
				creds = prompted
			}

			store, err := app.Session(ctx)
			if err != nil {
				return err
			}
			services, err := app.API(ctx)
			if err != nil {
				return err
			}

			result, err := services.Auth.SignIn(withSignIn(ctx), api.Credentials{Username: creds.Username, Password: creds.Password}, store)
			app.Metrics.Logins.WithLabelValues(boolLabel(err == nil)).Inc()
			if err != nil {
				return err
			}

			app.Logger.Info("logged in", "username", creds.Username, "fingerprint", session.Fingerprint(result.Token))
			if !app.textOutput() {
				return app.Print(authStatus{
					LoggedIn:    true,
					Backend:     backendName(app),
					Fingerprint: session.Fingerprint(result.Token),
					User:        result.UserInfo,
				})
			}
			app.Messenger.Success("Logged in as %s", displayName(result.UserInfo, creds.Username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newAuthLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.Session(ctx)
			if err != nil {
				return err
			}
			wasLoggedIn := store.IsAuthenticated(ctx)
			if err := store.Logout(ctx); err != nil {
				return err
			}
			if !wasLoggedIn {
				app.Messenger.Info("Not logged in.")
				return nil
			}
			app.Messenger.Success("Logged out.")
			return nil
		},
	}
}

// authStatus describes the stored session
type authStatus struct {
	LoggedIn    bool             `json:"logged_in" yaml:"logged_in"`
	Backend     string           `json:"backend" yaml:"backend"`
	Fingerprint string           `json:"token_fingerprint,omitempty" yaml:"token_fingerprint,omitempty"`
	User        session.UserInfo `json:"user,omitempty" yaml:"user,omitempty"`
}

func (s authStatus) String() string {
	if !s.LoggedIn {
		return fmt.Sprintf("Not logged in (store: %s)", s.Backend)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Logged in (store: %s)\n", s.Backend)
	fmt.Fprintf(&b, "  token:  %s", s.Fingerprint)
	if len(s.User) > 0 {
		keys := make([]string, 0, len(s.User))
		for k := range s.User {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n  user:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n    %s: %v", k, s.User[k])
		}
	}
	return b.String()
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show whether a token is stored, its fingerprint and the stored user record.
The token itself is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.Session(ctx)
			if err != nil {
				return err
			}

			token, ok, err := store.Token(ctx)
			if err != nil {
				return err
			}
			status := authStatus{LoggedIn: ok, Backend: backendName(app)}
			if ok {
				status.Fingerprint = session.Fingerprint(token)
				if info, found := store.LookupUserInfo(ctx); found {
					status.User = info
				}
			}
			return app.Print(status)
		},
	}
}

func newAuthWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Ask the server who is logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.Session(ctx)
			if err != nil {
				return err
			}
			if !store.IsAuthenticated(ctx) {
				return errors.NewNotLoggedInError()
			}
			services, err := app.API(ctx)
			if err != nil {
				return err
			}
			user, err := services.Auth.CurrentUser(ctx)
			if err != nil {
				return err
			}
			return app.Print(user)
		},
	}
}

func backendName(app *App) string {
	if app.Flags != nil && app.Flags.Ephemeral {
		return session.BackendMemory
	}
	if app.Config.Store.Backend == "" {
		return session.BackendFile
	}
	return app.Config.Store.Backend
}

func displayName(info session.UserInfo, fallback string) string {
	for _, key := range []string{"nickname", "username", "name"} {
		if v, ok := info[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}
