package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/api"
	"github.com/felixgeelhaar/journal/internal/apiclient"
	"github.com/felixgeelhaar/journal/internal/config"
	"github.com/felixgeelhaar/journal/internal/log"
	"github.com/felixgeelhaar/journal/internal/metrics"
	"github.com/felixgeelhaar/journal/internal/router"
	"github.com/felixgeelhaar/journal/internal/session"
	"github.com/felixgeelhaar/journal/internal/ux"
	"github.com/felixgeelhaar/journal/internal/version"
)

// App carries everything a command needs. The session, router and API
// client are built on first use so local commands never touch the store.
type App struct {
	Out io.Writer
	Err io.Writer

	Flags     *CommandContext
	Config    *config.Config
	Logger    *log.Logger
	Messenger *ux.Messenger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics

	store  *session.Store
	router *router.Router
	api    *api.API
}

// NewApp returns an App writing to stdout and stderr
func NewApp() *App {
	return &App{Out: os.Stdout, Err: os.Stderr}
}

// setup loads configuration, applies flag overrides and builds the logger
// and metrics registry. Validation is skipped for commands that must work
// on a broken config, such as 'config set'.
func (a *App) setup(cmd *cobra.Command, validate bool) error {
	flags, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a.Flags = flags

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Log.Format = flags.LogFormat
	}
	if flags.Format != "" {
		cfg.Output.Format = flags.Format
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.Config = cfg

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	format, err := log.ParseFormat(cfg.Log.Format)
	if err != nil {
		return err
	}
	a.Logger = log.New(log.Config{Level: level, Format: format, Output: a.Err})
	log.SetDefaultLogger(a.Logger)

	a.Messenger = ux.NewMessenger(a.Err, flags.NoColor)
	a.Registry, a.Metrics = metrics.NewRegistry()
	return nil
}

// Session opens the configured session store, or an in-memory one with --ephemeral
func (a *App) Session(ctx context.Context) (*session.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	opts := session.Options{
		Backend: a.Config.Store.Backend,
		Path:    a.Config.Store.Path,
		Redis: session.RedisOptions{
			Addr:     a.Config.Store.Redis.Addr,
			Password: a.Config.Store.Redis.Password,
			DB:       a.Config.Store.Redis.DB,
			Prefix:   a.Config.Store.Redis.Prefix,
		},
	}
	if a.Flags != nil && a.Flags.Ephemeral {
		opts.Backend = session.BackendMemory
	}

	store, err := session.Open(ctx, opts, a.Logger)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("session store opened", "backend", opts.Backend)
	a.store = store
	return store, nil
}

// Router returns the site router guarded by the session store
func (a *App) Router(ctx context.Context) (*router.Router, error) {
	if a.router != nil {
		return a.router, nil
	}
	store, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}

	a.router = router.New(store,
		router.WithLogger(a.Logger),
		router.WithMetrics(a.Metrics),
		router.WithOnLogin(func(ctx context.Context, _ router.Match) {
			if signingIn(ctx) {
				return
			}
			a.Messenger.Warning("Session ended by the server, stored credentials were cleared. Run 'journal auth login'.")
		}),
	)
	return a.router, nil
}

// API returns the endpoint services over a client wired to the session
// store and router.
func (a *App) API(ctx context.Context) (*api.API, error) {
	if a.api != nil {
		return a.api, nil
	}
	store, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}
	nav, err := a.Router(ctx)
	if err != nil {
		return nil, err
	}

	cfg := apiclient.Config{
		BaseURL:     a.Config.API.URL,
		BasePath:    a.Config.API.BasePath,
		Timeout:     a.Config.API.Timeout,
		ContentType: apiclient.DefaultContentType,
		UserAgent:   version.GetInfo().UserAgent(),
	}
	client, err := apiclient.New(cfg, store,
		apiclient.WithNavigator(nav),
		apiclient.WithLogger(a.Logger),
		apiclient.WithMetrics(a.Metrics),
	)
	if err != nil {
		return nil, err
	}
	a.api = api.New(client)
	return a.api, nil
}

type signInKey struct{}

// withSignIn marks ctx as belonging to a login in progress. A 401 seen
// there is a rejected login, not an ended session.
func withSignIn(ctx context.Context) context.Context {
	return context.WithValue(ctx, signInKey{}, true)
}

func signingIn(ctx context.Context) bool {
	v, _ := ctx.Value(signInKey{}).(bool)
	return v
}

// Print writes v in the selected output format
func (a *App) Print(v any) error {
	format, err := ux.ParseFormat(a.format())
	if err != nil {
		return err
	}
	return ux.Write(a.Out, format, v)
}

func (a *App) format() string {
	if a.Config == nil {
		return ""
	}
	return a.Config.Output.Format
}

// textOutput reports whether results should be rendered for humans
func (a *App) textOutput() bool {
	format, err := ux.ParseFormat(a.format())
	return err != nil || format == ux.FormatText
}

// finish records the command outcome, dumps metrics when asked and
// releases the session backend.
func (a *App) finish(cmd *cobra.Command, err error, start time.Time) {
	if a.Metrics != nil && cmd != nil {
		name := cmd.CommandPath()
		a.Metrics.CommandExecutions.WithLabelValues(name, boolLabel(err == nil)).Inc()
		a.Metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			if code := errorCode(err); code != "" {
				a.Metrics.Errors.WithLabelValues(code, "cli").Inc()
			}
		}
	}

	if a.Flags != nil && a.Flags.Metrics && a.Registry != nil {
		if werr := metrics.WriteText(a.Err, a.Registry); werr != nil && a.Logger != nil {
			a.Logger.WithError(werr).Warn("failed to write metrics")
		}
	}

	if a.store != nil {
		if closer, ok := a.store.Backend().(io.Closer); ok {
			_ = closer.Close()
		}
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// call runs fn against the API services and returns its raw result
func (a *App) call(cmd *cobra.Command, fn func(ctx context.Context, services *api.API) (json.RawMessage, error)) (json.RawMessage, error) {
	ctx := cmd.Context()
	services, err := a.API(ctx)
	if err != nil {
		return nil, err
	}
	return fn(ctx, services)
}

// run is call followed by printing the result
func (a *App) run(cmd *cobra.Command, fn func(ctx context.Context, services *api.API) (json.RawMessage, error)) error {
	raw, err := a.call(cmd, fn)
	if err != nil {
		return err
	}
	return a.Print(raw)
}
