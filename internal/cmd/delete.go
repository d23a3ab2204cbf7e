package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/api"
	"github.com/felixgeelhaar/journal/internal/tui"
)

// newDeleteCmd builds "delete <id>" for one resource kind. It asks before
// deleting unless --yes is set or no terminal is attached.
func newDeleteCmd(app *App, kind string, del func(ctx context.Context, services *api.API, id string) (json.RawMessage, error)) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete one %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes && tui.ShouldPrompt() {
				ok, err := tui.PromptForConfirmation(fmt.Sprintf("Delete %s %s?", kind, id), false)
				if err != nil {
					return err
				}
				if !ok {
					app.Messenger.Info("Kept %s %s", kind, id)
					return nil
				}
			}

			if _, err := app.call(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return del(ctx, services, id)
			}); err != nil {
				return err
			}
			app.Messenger.Success("Deleted %s %s", kind, id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
