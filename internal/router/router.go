// Package router holds the site's route table and the guard that keeps
// unauthenticated navigation away from protected routes.
package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/log"
	"github.com/felixgeelhaar/journal/internal/metrics"
)

// Decision is the outcome of the guard for one navigation
type Decision int

const (
	// Allowed lets the navigation commit to its target
	Allowed Decision = iota
	// RedirectedToLogin replaces the target with the login route
	RedirectedToLogin
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case RedirectedToLogin:
		return "redirected"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// AuthChecker reports whether a session token is present
type AuthChecker interface {
	IsAuthenticated(ctx context.Context) bool
}

// Match is a path resolved against the route table
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
}

// Result describes a completed navigation
type Result struct {
	Decision Decision
	// Target is the route that was asked for
	Target Match
	// Current is the route the navigation committed to
	Current Match
}

// Router resolves paths, applies the guard and tracks the current route.
// It is safe for concurrent use.
type Router struct {
	mux     *chi.Mux
	routes  map[string]Route
	table   []Route
	login   Route
	auth    AuthChecker
	logger  *log.Logger
	metrics *metrics.Metrics
	onLogin func(ctx context.Context, from Match)
	mu      sync.Mutex
	current *Match
	history []Match
}

// Option configures a Router
type Option func(*Router)

// WithRoutes replaces the default route table
func WithRoutes(routes []Route) Option {
	return func(r *Router) {
		r.setRoutes(routes)
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithMetrics records guard decisions on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithOnLogin registers a hook run when ToLogin moves the router to the
// login route. from is the route that was current before.
func WithOnLogin(fn func(ctx context.Context, from Match)) Option {
	return func(r *Router) {
		r.onLogin = fn
	}
}

// New creates a router over the default route table
func New(auth AuthChecker, opts ...Option) *Router {
	r := &Router{
		auth:   auth,
		logger: log.DefaultLogger(),
	}
	r.setRoutes(DefaultRoutes())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) setRoutes(routes []Route) {
	r.mux = chi.NewRouter()
	r.routes = make(map[string]Route, len(routes))
	r.table = append([]Route(nil), routes...)
	for _, route := range routes {
		r.mux.Method(http.MethodGet, route.Pattern, http.NotFoundHandler())
		r.routes[route.Pattern] = route
		if route.Name == RouteAdminLogin {
			r.login = route
		}
	}
}

// Routes returns the route table in declaration order
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.table...)
}

// Lookup returns the route registered under name
func (r *Router) Lookup(name string) (Route, bool) {
	for _, route := range r.table {
		if route.Name == name {
			return route, true
		}
	}
	return Route{}, false
}

// Resolve matches path against the route table. One trailing slash is
// ignored, so /about/ resolves like /about.
func (r *Router) Resolve(path string) (Match, bool) {
	if path == "" {
		path = "/"
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	rctx := chi.NewRouteContext()
	pattern := r.mux.Find(rctx, http.MethodGet, path)
	route, ok := r.routes[pattern]
	if !ok {
		return Match{}, false
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return Match{Route: route, Path: path, Params: params}, true
}

// Guard decides whether a navigation to target may commit. It checks token
// presence on every call and never caches the answer.
func (r *Router) Guard(ctx context.Context, target Match) Decision {
	decision := Allowed
	if target.Route.RequiresAuth && (r.auth == nil || !r.auth.IsAuthenticated(ctx)) {
		decision = RedirectedToLogin
	}
	if r.metrics != nil {
		r.metrics.RouteDecisions.WithLabelValues(target.Route.Name, decision.String()).Inc()
	}
	return decision
}

// Navigate resolves path, applies the guard and commits the resulting route.
// A redirect is not an error; callers inspect Result.Decision.
func (r *Router) Navigate(ctx context.Context, path string) (Result, error) {
	target, ok := r.Resolve(path)
	if !ok {
		return Result{}, errors.New(errors.ErrCodeRouteNotFound, fmt.Sprintf("no route matches %s", path)).
			WithSuggestion("Run 'journal open --list' to see the known routes")
	}

	decision := r.Guard(ctx, target)
	committed := target
	if decision == RedirectedToLogin {
		committed = r.loginMatch()
		r.logger.DebugContext(ctx, "navigation redirected to login", "target", target.Path, "route", target.Route.Name)
	}

	r.commit(committed)
	return Result{Decision: decision, Target: target, Current: committed}, nil
}

// ToLogin moves the router to the login route. The OnLogin hook runs only
// when the router was somewhere else.
func (r *Router) ToLogin(ctx context.Context) {
	login := r.loginMatch()

	r.mu.Lock()
	var from Match
	already := false
	if r.current != nil {
		from = *r.current
		already = from.Route.Name == login.Route.Name
	}
	r.mu.Unlock()

	if already {
		return
	}
	r.commit(login)
	r.logger.DebugContext(ctx, "forced navigation to login", "from", from.Path)
	if r.onLogin != nil {
		r.onLogin(ctx, from)
	}
}

// Current returns the committed route, if any
func (r *Router) Current() (Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Match{}, false
	}
	return *r.current, true
}

// History returns every committed route in order
func (r *Router) History() []Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Match, len(r.history))
	copy(out, r.history)
	return out
}

func (r *Router) commit(m Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = &m
	r.history = append(r.history, m)
}

func (r *Router) loginMatch() Match {
	return Match{Route: r.login, Path: r.login.Pattern, Params: map[string]string{}}
}
