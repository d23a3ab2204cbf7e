package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/api"
	"github.com/felixgeelhaar/journal/internal/mood"
)

func newMomentsCmd(app *App) *cobra.Command {
	momentsCmd := &cobra.Command{
		Use:     "moments",
		Aliases: []string{"moment"},
		Short:   "Read and manage moments",
		Long: `Read and manage moments, the short mood-tagged posts of the journal.

Examples:
  journal moments list --page 2
  journal moments moods
  journal moments create --data '{"content":"rainy day","mood":"无奈"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	momentsCmd.AddCommand(
		newMomentsListCmd(app),
		&cobra.Command{
			Use:   "moods",
			Short: "List the moods a moment can carry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				raw, err := app.call(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
					return services.Moments.Moods(ctx)
				})
				if err != nil {
					return err
				}
				if app.textOutput() {
					if labels, ok := moodLabels(raw); ok {
						for _, label := range labels {
							d := mood.Lookup(label)
							fmt.Fprintf(app.Out, "%s %s\n", d.Emoji, label)
						}
						return nil
					}
				}
				return app.Print(raw)
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one moment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
					return services.Moments.Get(ctx, args[0])
				})
			},
		},
		newMomentsWriteCmd(app, "create", func(ctx context.Context, services *api.API, args []string, body json.RawMessage) (json.RawMessage, error) {
			return services.Moments.Create(ctx, body)
		}),
		newMomentsWriteCmd(app, "update <id>", func(ctx context.Context, services *api.API, args []string, body json.RawMessage) (json.RawMessage, error) {
			return services.Moments.Update(ctx, args[0], body)
		}),
		newDeleteCmd(app, "moment", func(ctx context.Context, services *api.API, id string) (json.RawMessage, error) {
			return services.Moments.Delete(ctx, id)
		}),
	)
	return momentsCmd
}

func newMomentsListCmd(app *App) *cobra.Command {
	var page api.PageQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List moments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := app.call(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.Moments.List(ctx, page)
			})
			if err != nil {
				return err
			}
			if app.textOutput() {
				if items, ok := listItems(raw); ok {
					return writeMoments(app.Out, items, app.Flags.NoColor)
				}
			}
			return app.Print(raw)
		},
	}

	addPageFlags(cmd, &page)
	return cmd
}

func newMomentsWriteCmd(app *App, use string, send func(ctx context.Context, services *api.API, args []string, body json.RawMessage) (json.RawMessage, error)) *cobra.Command {
	args := cobra.NoArgs
	short := "Create a moment"
	if use != "create" {
		args = cobra.ExactArgs(1)
		short = "Update a moment"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, positional []string) error {
			body, err := readBody(cmd)
			if err != nil {
				return err
			}
			warnUnknownMood(app, body)
			return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return send(ctx, services, positional, body)
			})
		},
	}
	addBodyFlags(cmd)
	return cmd
}

// warnUnknownMood flags a mood the display table does not know. The server
// decides what it accepts, so the request is still sent.
func warnUnknownMood(app *App, body json.RawMessage) {
	var fields struct {
		Mood string `json:"mood"`
	}
	if err := json.Unmarshal(body, &fields); err != nil || fields.Mood == "" {
		return
	}
	if !mood.Known(fields.Mood) {
		app.Messenger.Warning("Mood %q is not one of %v", fields.Mood, mood.Labels())
	}
}

// moodLabels reads the moods listing, either strings or objects naming the mood
func moodLabels(raw json.RawMessage) ([]string, bool) {
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	labels := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			labels = append(labels, v)
		case map[string]any:
			label := field(v, "mood", "name", "label")
			if label == "" {
				return nil, false
			}
			labels = append(labels, label)
		default:
			return nil, false
		}
	}
	return labels, true
}
