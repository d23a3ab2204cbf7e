package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/api"
	"github.com/felixgeelhaar/journal/internal/errors"
)

func newSettingsCmd(app *App) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change site and user settings",
		Long: `Read and change settings.

Examples:
  journal settings site get
  journal settings site update --file site.yaml
  journal settings user get          # settings of the logged-in user
  journal settings user get 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	siteCmd := &cobra.Command{
		Use:   "site",
		Short: "Site-wide settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	siteUpdateCmd := &cobra.Command{
		Use:   "update",
		Short: "Replace the site settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd)
			if err != nil {
				return err
			}
			return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.SiteSettings.Update(ctx, body)
			})
		},
	}
	addBodyFlags(siteUpdateCmd)
	siteCmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the site settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
					return services.SiteSettings.Get(ctx)
				})
			},
		},
		siteUpdateCmd,
	)

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Per-user settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	userUpdateCmd := &cobra.Command{
		Use:   "update [user-id]",
		Short: "Replace the settings of a user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd)
			if err != nil {
				return err
			}
			userID, err := app.userID(cmd, args)
			if err != nil {
				return err
			}
			return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.UserSettings.Update(ctx, userID, body)
			})
		},
	}
	addBodyFlags(userUpdateCmd)
	userCmd.AddCommand(
		&cobra.Command{
			Use:   "get [user-id]",
			Short: "Show the settings of a user",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				userID, err := app.userID(cmd, args)
				if err != nil {
					return err
				}
				return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
					return services.UserSettings.Get(ctx, userID)
				})
			},
		},
		userUpdateCmd,
	)

	settingsCmd.AddCommand(siteCmd, userCmd)
	return settingsCmd
}

// userID is the positional user id, or the id in the stored user record
func (a *App) userID(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	ctx := cmd.Context()
	store, err := a.Session(ctx)
	if err != nil {
		return "", err
	}
	if !store.IsAuthenticated(ctx) {
		return "", errors.NewNotLoggedInError()
	}
	info, ok := store.LookupUserInfo(ctx)
	if ok {
		if id := field(info, "id", "userId"); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("the stored user record has no id, pass the user id as an argument")
}
