package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/router"
)

// navigation is the printable outcome of one guarded navigation
type navigation struct {
	Path     string            `json:"path" yaml:"path"`
	Route    string            `json:"route" yaml:"route"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Decision string            `json:"decision" yaml:"decision"`
	Current  string            `json:"current" yaml:"current"`
}

func newNavigation(res router.Result) navigation {
	return navigation{
		Path:     res.Target.Path,
		Route:    res.Target.Route.Name,
		Params:   res.Target.Params,
		Decision: res.Decision.String(),
		Current:  res.Current.Path,
	}
}

func (n navigation) String() string {
	if n.Decision == router.RedirectedToLogin.String() {
		return fmt.Sprintf("%s requires login, redirected to %s", n.Path, n.Current)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s -> %s", n.Path, n.Route)
	if len(n.Params) > 0 {
		keys := make([]string, 0, len(n.Params))
		for k := range n.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, n.Params[k])
		}
	}
	return b.String()
}

// routeRow is one line of 'journal open --list'
type routeRow struct {
	Name         string `json:"name" yaml:"name"`
	Pattern      string `json:"pattern" yaml:"pattern"`
	RequiresAuth bool   `json:"requires_auth" yaml:"requires_auth"`
}

type routeTable []routeRow

func (t routeTable) String() string {
	var b strings.Builder
	for i, row := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		guard := ""
		if row.RequiresAuth {
			guard = "  (login required)"
		}
		fmt.Fprintf(&b, "%-16s %s%s", row.Name, row.Pattern, guard)
	}
	return b.String()
}

func newOpenCmd(app *App) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "open [path]",
		Short: "Resolve a site path through the route guard",
		Long: `Resolve a path of the journal site against its route table and apply the
route guard. Protected routes redirect to the login page when no session
token is stored.

Examples:
  journal open /article/42
  journal open /admin/dashboard
  journal open --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nav, err := app.Router(ctx)
			if err != nil {
				return err
			}

			if list {
				rows := make(routeTable, 0, len(nav.Routes()))
				for _, route := range nav.Routes() {
					rows = append(rows, routeRow{Name: route.Name, Pattern: route.Pattern, RequiresAuth: route.RequiresAuth})
				}
				return app.Print(rows)
			}
			if len(args) == 0 {
				return fmt.Errorf("accepts 1 arg(s), received 0: pass a path or --list")
			}

			res, err := nav.Navigate(ctx, args[0])
			if err != nil {
				return err
			}
			return app.Print(newNavigation(res))
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list the known routes")
	return cmd
}

func newAdminCmd(app *App) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin area of the site",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	adminCmd.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Enter the admin dashboard (requires login)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nav, err := app.Router(ctx)
			if err != nil {
				return err
			}
			dashboard, _ := nav.Lookup(router.RouteAdminDashboard)

			res, err := nav.Navigate(ctx, dashboard.Pattern)
			if err != nil {
				return err
			}
			if res.Decision == router.RedirectedToLogin {
				return errors.NewRouteDeniedError(res.Target.Path)
			}

			store, err := app.Session(ctx)
			if err != nil {
				return err
			}
			if info, ok := store.LookupUserInfo(ctx); ok {
				app.Messenger.Success("Admin dashboard, signed in as %s", displayName(info, "unknown user"))
			} else {
				app.Messenger.Success("Admin dashboard")
			}
			return app.Print(newNavigation(res))
		},
	})
	return adminCmd
}
