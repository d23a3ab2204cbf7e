// Package apiclient executes calls against the journal REST API. It attaches
// the stored bearer token to every request except login, unwraps response
// bodies, and clears the session when the server answers 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/log"
	"github.com/felixgeelhaar/journal/internal/metrics"
)

const (
	// DefaultBasePath is prepended to every request path
	DefaultBasePath = "/api"

	// DefaultTimeout bounds a single request
	DefaultTimeout = 10 * time.Second

	// DefaultContentType is sent with every non-multipart request
	DefaultContentType = "application/json"

	// LoginPath is exempt from bearer token injection
	LoginPath = "/auth/login"

	// RequestIDHeader carries a fresh UUID per request
	RequestIDHeader = "X-Request-ID"
)

// Config is fixed at construction
type Config struct {
	BaseURL     string
	BasePath    string
	Timeout     time.Duration
	ContentType string
	UserAgent   string
}

// DefaultConfig returns the configuration for a server on localhost
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:8080",
		BasePath:    DefaultBasePath,
		Timeout:     DefaultTimeout,
		ContentType: DefaultContentType,
	}
}

// TokenStore is the part of the session store the client needs
type TokenStore interface {
	Token(ctx context.Context) (string, bool, error)
	Logout(ctx context.Context) error
}

// Navigator forces the application to the login route
type Navigator interface {
	ToLogin(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context)

// ToLogin calls f
func (f NavigatorFunc) ToLogin(ctx context.Context) {
	f(ctx)
}

// Client is the journal API client. It is safe for concurrent use.
type Client struct {
	config     Config
	baseURL    *url.URL
	httpClient *http.Client
	store      TokenStore
	navigator  Navigator
	logger     *log.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNavigator sets the navigator invoked after a 401
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithLogger sets the logger used for failed calls
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records request metrics on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client bound to store
func New(cfg Config, store TokenStore, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewConfigInvalidError("api base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.NewConfigInvalidError(fmt.Sprintf("api base URL %q is not an absolute URL", cfg.BaseURL))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ContentType == "" {
		cfg.ContentType = DefaultContentType
	}
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")
	if cfg.BasePath == "/" {
		cfg.BasePath = ""
	}

	c := &Client{
		config:  cfg,
		baseURL: base,
		store:   store,
		logger:  log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// copy so the caller's client keeps its own timeout
	hc := http.Client{}
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	hc.Timeout = cfg.Timeout
	c.httpClient = &hc

	return c, nil
}

// Config returns the client configuration
func (c *Client) Config() Config {
	return c.config
}

// URL returns the absolute URL for an API path. path must already be escaped.
func (c *Client) URL(path string) string {
	return strings.TrimRight(c.baseURL.String(), "/") + c.config.BasePath + "/" + strings.TrimLeft(path, "/")
}

// Do executes req and returns the response body.
//
// Every failure is returned to the caller. A 401 additionally clears the
// session and navigates to the login route before returning.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	requestID := httpReq.Header.Get(RequestIDHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		terr := &TransportError{Method: req.Method, Path: req.Path, Err: err}
		c.observe(req, "error", start)
		c.recordError("transport")
		c.logger.WithError(terr).ErrorContext(ctx, "API request failed",
			"method", req.Method, "path", req.Path, "request_id", requestID, "timeout", terr.Timeout())
		return nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.observe(req, strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		terr := &TransportError{Method: req.Method, Path: req.Path, Err: err}
		c.recordError("transport")
		c.logger.WithError(terr).ErrorContext(ctx, "failed to read API response",
			"method", req.Method, "path", req.Path, "status", resp.StatusCode, "request_id", requestID)
		return nil, terr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.handleFailure(ctx, req, requestID, newStatusError(req.Method, req.Path, resp.StatusCode, body))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// Do executes req with c and decodes the response body into T.
// An empty body yields the zero value of T.
func Do[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	body, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		c.recordError("decode")
		return out, errors.Wrap(errors.ErrCodeAPIDecode,
			fmt.Sprintf("failed to decode response of %s %s", req.Method, req.Path), err)
	}
	return out, nil
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, params any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: params})
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.URL(req.Path)
	if req.Query != nil {
		values, err := encodeQuery(req.Query)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeAPIEncode, "failed to encode query parameters", err)
		}
		if encoded := values.Encode(); encoded != "" {
			target += "?" + encoded
		}
	}

	body, contentType, err := c.encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIRequest, "failed to create request", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	if err := c.authorize(ctx, httpReq, req.Path); err != nil {
		return nil, err
	}

	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	return httpReq, nil
}

// authorize attaches the bearer token. The login endpoint never gets one.
func (c *Client) authorize(ctx context.Context, httpReq *http.Request, path string) error {
	if c.store == nil || strings.Contains(path, LoginPath) {
		return nil
	}
	token, ok, err := c.store.Token(ctx)
	if err != nil {
		return err
	}
	if ok {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) encodeBody(req Request) (io.Reader, string, error) {
	if req.File != nil {
		return encodeMultipart(req.File)
	}

	switch body := req.Body.(type) {
	case nil:
		return nil, c.config.ContentType, nil
	case json.RawMessage:
		return bytes.NewReader(body), c.config.ContentType, nil
	case []byte:
		return bytes.NewReader(body), c.config.ContentType, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeAPIEncode, "failed to marshal request body", err)
		}
		return bytes.NewReader(data), c.config.ContentType, nil
	}
}

func encodeMultipart(f *File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, values := range f.Fields {
		for _, v := range values {
			if err := w.WriteField(key, v); err != nil {
				return nil, "", errors.Wrap(errors.ErrCodeAPIEncode, "failed to write form field", err)
			}
		}
	}

	field := f.Field
	if field == "" {
		field = "file"
	}
	part, err := w.CreateFormFile(field, f.Name)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeAPIEncode, "failed to create form file", err)
	}
	if _, err := io.Copy(part, f.Reader); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", f.Name), err)
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeAPIEncode, "failed to finish multipart body", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func encodeQuery(q any) (url.Values, error) {
	switch v := q.(type) {
	case url.Values:
		return v, nil
	case map[string]string:
		values := url.Values{}
		for key, val := range v {
			values.Set(key, val)
		}
		return values, nil
	default:
		return query.Values(q)
	}
}

// handleFailure logs a non-2xx response and, for 401, invalidates the session
func (c *Client) handleFailure(ctx context.Context, req Request, requestID string, statusErr *StatusError) error {
	c.recordError("status")
	c.logger.WithError(statusErr).ErrorContext(ctx, "API request failed",
		"method", req.Method, "path", req.Path, "status", statusErr.StatusCode, "request_id", requestID)

	if statusErr.StatusCode != http.StatusUnauthorized {
		return statusErr
	}

	if c.store != nil {
		if err := c.store.Logout(ctx); err != nil {
			c.logger.WithError(err).ErrorContext(ctx, "failed to clear session after 401")
		}
	}
	if c.metrics != nil {
		c.metrics.SessionInvalidations.Inc()
	}
	if c.navigator != nil {
		c.navigator.ToLogin(ctx)
	}
	return errors.NewSessionExpiredError(statusErr)
}

func (c *Client) observe(req Request, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.APIRequests.WithLabelValues(req.Method, req.endpoint(), status).Inc()
	c.metrics.APIRequestDuration.WithLabelValues(req.Method, req.endpoint()).Observe(time.Since(start).Seconds())
}

func (c *Client) recordError(kind string) {
	if c.metrics == nil {
		return
	}
	c.metrics.APIErrors.WithLabelValues(kind).Inc()
}
