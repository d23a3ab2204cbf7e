package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/api"
)

func newTimelineCmd(app *App) *cobra.Command {
	timelineCmd := &cobra.Command{
		Use:   "timeline",
		Short: "Browse the timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var filter api.TimelineFilter
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List timeline events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.Timeline.Events(ctx, filter)
			})
		},
	}
	eventsCmd.Flags().StringVar(&filter.Category, "category", "", "only events in this category")
	eventsCmd.Flags().IntVar(&filter.Year, "year", 0, "only events of this year")

	timelineCmd.AddCommand(
		eventsCmd,
		&cobra.Command{
			Use:   "categories",
			Short: "List timeline categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
					return services.Timeline.Categories(ctx)
				})
			},
		},
	)
	return timelineCmd
}
