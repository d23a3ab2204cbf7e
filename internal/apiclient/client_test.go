package apiclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/log"
	"github.com/felixgeelhaar/journal/internal/metrics"
	"github.com/felixgeelhaar/journal/internal/session"
)

// seenRequest is what a test server observed
type seenRequest struct {
	header http.Header
	method string
	path   string
	query  url.Values
	body   []byte
}

// recorder captures the requests seen by a test server
type recorder struct {
	mu    sync.Mutex
	seen  seenRequest
	count int
}

func (r *recorder) record(req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = seenRequest{
		header: req.Header.Clone(),
		method: req.Method,
		path:   req.URL.Path,
		query:  req.URL.Query(),
		body:   body,
	}
	r.count++
}

func (r *recorder) last() seenRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

type navigatorSpy struct {
	mu    sync.Mutex
	calls int
}

func (n *navigatorSpy) ToLogin(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}

func (n *navigatorSpy) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) (*Client, *session.Store) {
	t.Helper()
	store := session.NewStore(session.NewMemoryBackend(), log.Discard())
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	opts = append([]Option{WithLogger(log.Discard())}, opts...)
	c, err := New(cfg, store, opts...)
	require.NoError(t, err)
	return c, store
}

func TestNew_ValidatesBaseURL(t *testing.T) {
	store := session.NewStore(session.NewMemoryBackend(), log.Discard())

	for _, raw := range []string{"", "localhost:8080", "/api", "://bad"} {
		cfg := DefaultConfig()
		cfg.BaseURL = raw
		_, err := New(cfg, store)
		assert.Error(t, err, "base URL %q should be rejected", raw)
	}
}

func TestNew_LeavesCallerHTTPClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c, err := New(Config{BaseURL: "http://example.com", Timeout: 2 * time.Second}, nil, WithHTTPClient(shared))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
	assert.NotSame(t, shared, c.httpClient)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{BaseURL: "http://example.com"}, nil)
	require.NoError(t, err)

	cfg := c.Config()
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultContentType, cfg.ContentType)
	assert.Equal(t, "http://example.com/articles/7", c.URL("/articles/7"))

	c, err = New(Config{BaseURL: "http://example.com/blog/", BasePath: "api/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/blog/api/articles", c.URL("articles"))
}

func TestClient_AttachesBearerToken(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	c, store := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Get(ctx, "/articles", nil)
	require.NoError(t, err)
	seen := rec.last()
	assert.Equal(t, "/api/articles", seen.path)
	assert.Empty(t, seen.header.Get("Authorization"), "no token stored, no header")

	require.NoError(t, store.SetToken(ctx, "abc"))
	_, err = c.Get(ctx, "/articles", nil)
	require.NoError(t, err)
	header := rec.last().header
	assert.Equal(t, "Bearer abc", header.Get("Authorization"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.NotEmpty(t, header.Get(RequestIDHeader))
}

func TestClient_LoginIsExempt(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"token":"new"}`)
	c, store := newTestClient(t, srv)
	ctx := context.Background()
	require.NoError(t, store.SetToken(ctx, "stale"))

	_, err := c.Post(ctx, "/auth/login", map[string]string{"username": "admin", "password": "pw"})
	require.NoError(t, err)

	seen := rec.last()
	assert.Equal(t, "/api/auth/login", seen.path)
	assert.Empty(t, seen.header.Get("Authorization"))
}

func TestClient_UnwrapsBody(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"x":1}`)
	c, _ := newTestClient(t, srv)

	body, err := c.Get(context.Background(), "/anything", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(body))

	got, err := Do[map[string]int](context.Background(), c, Request{Path: "/anything"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 1}, got)
}

func TestClient_EmptyBody(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNoContent, ``)
	c, _ := newTestClient(t, srv)

	body, err := c.Delete(context.Background(), "/articles/3")
	require.NoError(t, err)
	assert.Nil(t, body)

	got, err := Do[map[string]any](context.Background(), c, Request{Method: http.MethodDelete, Path: "/articles/3"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_DecodeError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[1,2]`)
	c, _ := newTestClient(t, srv)

	_, err := Do[map[string]any](context.Background(), c, Request{Path: "/articles"})
	require.Error(t, err)

	var jerr *errors.JournalError
	require.True(t, stderrors.As(err, &jerr))
	assert.Equal(t, errors.ErrCodeAPIDecode, jerr.Code)
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, `{"message":"token expired"}`)
	nav := &navigatorSpy{}
	_, m := metrics.NewRegistry()
	c, store := newTestClient(t, srv, WithNavigator(nav), WithMetrics(m))
	ctx := context.Background()

	require.NoError(t, store.Login(ctx, "abc", session.UserInfo{"name": "admin"}))

	_, err := c.Get(ctx, "/auth/current-user", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var statusErr *StatusError
	require.True(t, stderrors.As(err, &statusErr))
	assert.Equal(t, "token expired", statusErr.Message)

	var jerr *errors.JournalError
	require.True(t, stderrors.As(err, &jerr))
	assert.Equal(t, errors.ErrCodeSessionExpired, jerr.Code)

	_, ok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "token should be cleared")
	_, err = store.UserInfo(ctx)
	assert.ErrorIs(t, err, session.ErrNoUserInfo, "user info should be cleared")

	assert.Equal(t, 1, nav.Calls())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionInvalidations))
}

func TestClient_UnauthorizedWithEmptyStore(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, ``)
	nav := &navigatorSpy{}
	c, store := newTestClient(t, srv, WithNavigator(nav))
	ctx := context.Background()

	_, err := c.Get(ctx, "/articles", nil)
	assert.True(t, IsUnauthorized(err))
	assert.False(t, store.IsAuthenticated(ctx))
	assert.Equal(t, 1, nav.Calls())
}

func TestClient_OtherStatusLeavesSession(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{"forbidden", http.StatusForbidden, `{"error":"forbidden"}`, "forbidden"},
		{"not found", http.StatusNotFound, `{"msg":"no such article"}`, "no such article"},
		{"server error", http.StatusInternalServerError, `internal failure`, "internal failure"},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			nav := &navigatorSpy{}
			c, store := newTestClient(t, srv, WithNavigator(nav))
			ctx := context.Background()
			require.NoError(t, store.SetToken(ctx, "abc"))

			_, err := c.Get(ctx, "/articles/1", nil)
			require.Error(t, err)
			assert.False(t, IsUnauthorized(err))
			assert.Equal(t, tt.status, StatusCode(err))

			var statusErr *StatusError
			require.True(t, stderrors.As(err, &statusErr))
			assert.Equal(t, tt.msg, statusErr.Message)
			assert.Equal(t, http.MethodGet, statusErr.Method)
			assert.Equal(t, "/articles/1", statusErr.Path)

			assert.True(t, store.IsAuthenticated(ctx))
			assert.Zero(t, nav.Calls())
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	nav := &navigatorSpy{}
	store := session.NewStore(session.NewMemoryBackend(), log.Discard())
	require.NoError(t, store.SetToken(context.Background(), "abc"))
	c, err := New(Config{BaseURL: baseURL}, store, WithNavigator(nav), WithLogger(log.Discard()))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/articles", nil)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Zero(t, StatusCode(err))
	assert.True(t, store.IsAuthenticated(context.Background()))
	assert.Zero(t, nav.Calls())
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, WithLogger(log.Discard()))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/slow", nil)
	require.Error(t, err)

	var terr *TransportError
	require.True(t, stderrors.As(err, &terr))
	assert.True(t, terr.Timeout())
}

func TestClient_NoRetry(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusServiceUnavailable, ``)
	c, _ := newTestClient(t, srv)

	_, err := c.Get(context.Background(), "/articles", nil)
	require.Error(t, err)
	assert.Equal(t, 1, rec.calls())
}

type listParams struct {
	Category string `url:"category,omitempty"`
	Page     int    `url:"page,omitempty"`
	Size     int    `url:"size,omitempty"`
}

func TestClient_QueryEncoding(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `[]`)
	c, _ := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Get(ctx, "/articles/list", listParams{Category: "go", Page: 2})
	require.NoError(t, err)
	q := rec.last().query
	assert.Equal(t, "go", q.Get("category"))
	assert.Equal(t, "2", q.Get("page"))
	assert.False(t, q.Has("size"))

	_, err = c.Get(ctx, "/articles", url.Values{"tag": {"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.last().query["tag"])

	_, err = c.Get(ctx, "/articles", map[string]string{"keyword": "rust"})
	require.NoError(t, err)
	assert.Equal(t, "rust", rec.last().query.Get("keyword"))
}

func TestClient_JSONBody(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusCreated, `{"id":9}`)
	c, _ := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Post(ctx, "/articles", map[string]any{"title": "hello"})
	require.NoError(t, err)
	seen := rec.last()
	assert.Equal(t, http.MethodPost, seen.method)
	assert.JSONEq(t, `{"title":"hello"}`, string(seen.body))

	_, err = c.Put(ctx, "/articles/9", json.RawMessage(`{"title":"raw"}`))
	require.NoError(t, err)
	seen = rec.last()
	assert.Equal(t, http.MethodPut, seen.method)
	assert.JSONEq(t, `{"title":"raw"}`, string(seen.body))
}

func TestClient_HeaderOverride(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	c, store := newTestClient(t, srv)
	ctx := context.Background()
	require.NoError(t, store.SetToken(ctx, "abc"))

	_, err := c.Do(ctx, Request{
		Path:   "/site-settings",
		Header: http.Header{"Authorization": {"Bearer override"}, "X-Trace": {"1"}},
	})
	require.NoError(t, err)
	header := rec.last().header
	assert.Equal(t, "Bearer override", header.Get("Authorization"))
	assert.Equal(t, "1", header.Get("X-Trace"))
}

func TestClient_Multipart(t *testing.T) {
	type upload struct {
		contentType string
		name        string
		content     string
		note        string
	}
	got := make(chan upload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		got <- upload{
			contentType: r.Header.Get("Content-Type"),
			name:        header.Filename,
			content:     string(data),
			note:        r.FormValue("note"),
		}
		_, _ = io.WriteString(w, `{"url":"/uploads/cover.png"}`)
	}))
	t.Cleanup(srv.Close)

	c, _ := newTestClient(t, srv)
	body, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/file/upload",
		File: &File{
			Field:  "file",
			Name:   "cover.png",
			Reader: strings.NewReader("png-bytes"),
			Fields: url.Values{"note": {"header image"}},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"/uploads/cover.png"}`, string(body))

	up := <-got
	assert.True(t, strings.HasPrefix(up.contentType, "multipart/form-data"))
	assert.Equal(t, "cover.png", up.name)
	assert.Equal(t, "png-bytes", up.content)
	assert.Equal(t, "header image", up.note)
}

func TestClient_RecordsMetrics(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{}`)
	_, m := metrics.NewRegistry()
	c, _ := newTestClient(t, srv, WithMetrics(m))

	_, err := c.Do(context.Background(), Request{Path: "/articles/5", Endpoint: "/articles/{id}"})
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/articles/{id}", "200")))
}

func TestClient_LogsFailures(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `{"message":"boom"}`)
	var buf strings.Builder
	logger := log.New(log.Config{Level: log.LevelError, Format: log.FormatJSON, Output: &buf})
	c, _ := newTestClient(t, srv, WithLogger(logger))

	_, err := c.Get(context.Background(), "/articles", nil)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "API request failed")
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), "request_id")
}
