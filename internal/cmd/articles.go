package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/api"
)

func newArticlesCmd(app *App) *cobra.Command {
	articlesCmd := &cobra.Command{
		Use:     "articles",
		Aliases: []string{"article"},
		Short:   "Read and manage articles",
		Long: `Read and manage blog articles.

Examples:
  journal articles list --category travel
  journal articles get 42
  journal articles create --file draft.yaml
  journal articles update 42 --data '{"title":"New title"}'
  journal articles delete 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	articlesCmd.AddCommand(
		newArticlesListCmd(app),
		newArticlesPageCmd(app),
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one article",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
					return services.Articles.Get(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "categories",
			Short: "List article categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
					return services.Articles.Categories(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "tags",
			Short: "List article tags",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
					return services.Articles.Tags(ctx)
				})
			},
		},
		newArticlesCreateCmd(app),
		newArticlesUpdateCmd(app),
		newArticlesDeleteCmd(app),
	)
	return articlesCmd
}

func newArticlesListCmd(app *App) *cobra.Command {
	var filter api.ArticleFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := app.call(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.Articles.List(ctx, filter)
			})
			if err != nil {
				return err
			}
			return app.printArticles(raw)
		},
	}

	cmd.Flags().StringVar(&filter.Category, "category", "", "only articles in this category")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "only articles with this tag")
	cmd.Flags().StringVar(&filter.Keyword, "keyword", "", "full-text search")
	cmd.Flags().StringVar(&filter.Status, "status", "", "only articles with this status")
	addPageFlags(cmd, &filter.PageQuery)
	return cmd
}

func newArticlesPageCmd(app *App) *cobra.Command {
	var page api.PageQuery

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Show one page of the article listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := app.call(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.Articles.Page(ctx, page)
			})
			if err != nil {
				return err
			}
			return app.printArticles(raw)
		},
	}

	addPageFlags(cmd, &page)
	return cmd
}

func newArticlesCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd)
			if err != nil {
				return err
			}
			return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.Articles.Create(ctx, body)
			})
		},
	}
	addBodyFlags(cmd)
	return cmd
}

func newArticlesUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd)
			if err != nil {
				return err
			}
			return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.Articles.Update(ctx, args[0], body)
			})
		},
	}
	addBodyFlags(cmd)
	return cmd
}

func newArticlesDeleteCmd(app *App) *cobra.Command {
	return newDeleteCmd(app, "article", func(ctx context.Context, services *api.API, id string) (json.RawMessage, error) {
		return services.Articles.Delete(ctx, id)
	})
}

func addPageFlags(cmd *cobra.Command, page *api.PageQuery) {
	cmd.Flags().IntVar(&page.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&page.Size, "size", 0, "page size")
}

func (a *App) printArticles(raw json.RawMessage) error {
	if a.textOutput() {
		if items, ok := listItems(raw); ok {
			return writeArticles(a.Out, items)
		}
	}
	return a.Print(raw)
}
