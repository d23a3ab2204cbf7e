package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testToken = "tok-1"

type seenRequest struct {
	Method      string
	Path        string
	RawQuery    string
	Auth        string
	ContentType string
	Body        []byte
}

// fakeBlog is a minimal journal server
type fakeBlog struct {
	srv *httptest.Server

	mu        sync.Mutex
	seen      []seenRequest
	rejectAll bool
	// bareLogin answers logins with a token the server then refuses, and
	// no user record
	bareLogin bool
}

func newFakeBlog(t *testing.T) *fakeBlog {
	t.Helper()
	fb := &fakeBlog{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "admin" || creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"bad credentials"}`)
			return
		}
		fb.mu.Lock()
		bare := fb.bareLogin
		fb.mu.Unlock()
		if bare {
			writeJSON(w, http.StatusOK, `{"token":"tok-revoked"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"token":"`+testToken+`","userInfo":{"id":7,"username":"admin"}}`)
	})
	mux.HandleFunc("GET /api/auth/current-user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":7,"username":"admin"}`)
	})
	mux.HandleFunc("GET /api/articles", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":1,"title":"Hello","category":"life"},{"id":2,"title":"Second"}]`)
	})
	mux.HandleFunc("POST /api/articles", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, `{"id":9,"received":`+string(body)+`}`)
	})
	mux.HandleFunc("DELETE /api/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/complaints/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"records":[{"id":3,"mood":"开心","content":"sunny day"},{"id":4,"mood":"meh","content":"who knows"}],"total":2}`)
	})
	mux.HandleFunc("GET /api/complaints/moods", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `["开心","疲惫"]`)
	})
	mux.HandleFunc("GET /api/site-settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"title":"My journal"}`)
	})
	mux.HandleFunc("GET /api/user-settings/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"userId":"`+r.PathValue("id")+`","theme":"dark"}`)
	})
	mux.HandleFunc("GET /api/timeline/events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"title":"Moved","year":2023}]`)
	})
	mux.HandleFunc("POST /api/file/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message":"no file"}`)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"name":%q,"size":%d}`, header.Filename, len(content)))
	})

	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		fb.mu.Lock()
		fb.seen = append(fb.seen, seenRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		reject := fb.rejectAll
		fb.mu.Unlock()

		if reject && r.URL.Path != "/api/auth/login" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBlog) last() seenRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.seen) == 0 {
		return seenRequest{}
	}
	return fb.seen[len(fb.seen)-1]
}

func (fb *fakeBlog) count() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.seen)
}

func (fb *fakeBlog) expireSessions() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rejectAll = true
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

type testEnv struct {
	dir         string
	configPath  string
	sessionPath string
}

func newTestEnv(t *testing.T, serverURL string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CI", "true")

	env := &testEnv{
		dir:         dir,
		configPath:  filepath.Join(dir, "config.yaml"),
		sessionPath: filepath.Join(dir, "session.json"),
	}
	content := fmt.Sprintf(`api:
  url: %s
  timeout: 5s
store:
  backend: file
  path: %s
log:
  level: error
`, serverURL, env.sessionPath)
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0o600))
	return env
}

type result struct {
	out    string
	errOut string
	err    error
}

func (e *testEnv) run(args ...string) result {
	var out, errOut bytes.Buffer
	app := &App{Out: &out, Err: &errOut}
	full := append([]string{"--config", e.configPath, "--no-color"}, args...)
	err := execute(context.Background(), app, full)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	res := e.run("auth", "login", "-u", "admin", "-p", "secret")
	require.NoError(t, res.err, res.errOut)
}
