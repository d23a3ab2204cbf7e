package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/config"
	"github.com/felixgeelhaar/journal/internal/ux"
)

func newConfigCmd(app *App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit journal configuration",
		Long: `Manage journal configuration stored at ~/.journal/config.yaml

Configuration includes:
  • API location (api.url, api.base_path, api.timeout)
  • Session store (store.backend, store.path, store.redis.*)
  • Logging and output format

Every key can also be set through the environment, e.g. JOURNAL_API_URL.

Examples:
  # View the effective configuration
  journal config view

  # Point the client at a server
  journal config set api.url https://blog.example.com

  # Show configuration file path
  journal config path
`,
		// config commands must work on a configuration that does not validate
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd, false)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "view",
			Short: "Display the effective configuration",
			Long:  `Display the configuration after defaults, the config file and environment overrides are applied.`,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := *app.Config
				if cfg.Store.Redis.Password != "" {
					cfg.Store.Redis.Password = "********"
				}
				format := ux.FormatYAML
				if f, err := ux.ParseFormat(app.format()); err == nil && f != ux.FormatText {
					format = f
				}
				if err := ux.Write(app.Out, format, cfg); err != nil {
					return err
				}
				if err := app.Config.Validate(); err != nil {
					app.Messenger.Warning("%v", err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(app.Out, configPath(app))
				return err
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value",
			Long: `Set the value of a configuration key using dot notation, e.g.
'journal config set api.timeout 30s'. The value is written to the config file.`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := configPath(app)
				if err := config.Set(path, args[0], args[1]); err != nil {
					return err
				}

				cfg, err := config.Load(path)
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					app.Messenger.Warning("%v", err)
				}
				app.Messenger.Success("Set %s in %s", args[0], path)
				return nil
			},
		},
	)
	return configCmd
}

func configPath(app *App) string {
	if app.Flags != nil && app.Flags.ConfigPath != "" {
		return app.Flags.ConfigPath
	}
	return config.DefaultPath()
}
