package cmd

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/exitcode"
	"github.com/felixgeelhaar/journal/internal/session"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd(NewApp())

	want := []string{"auth", "articles", "moments", "timeline", "settings", "upload", "open", "admin", "config", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, flag := range []string{"config", "log-level", "log-format", "format", "ephemeral", "metrics", "no-color"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %s", flag)
	}
}

func TestAuthSubcommands(t *testing.T) {
	authCmd := newAuthCmd(NewApp())

	names := map[string]bool{}
	for _, cmd := range authCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"login", "logout", "status", "whoami"} {
		assert.True(t, names[name], "subcommand %s not registered", name)
	}
}

func TestAuth_LoginStatusLogout(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)

	res := env.run("auth", "login", "-u", "admin", "-p", "secret")
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.errOut, "Logged in as admin")

	login := blog.last()
	assert.Equal(t, "/api/auth/login", login.Path)
	assert.Empty(t, login.Auth, "login carries no Authorization header")

	data, err := os.ReadFile(env.sessionPath)
	require.NoError(t, err)
	var stored map[string]string
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, testToken, stored[session.TokenKey])
	assert.JSONEq(t, `{"id":7,"username":"admin"}`, stored[session.UserInfoKey])

	res = env.run("auth", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Logged in (store: file)")
	assert.Contains(t, res.out, session.Fingerprint(testToken))
	assert.Contains(t, res.out, "username: admin")
	assert.NotContains(t, res.out, testToken)

	res = env.run("auth", "whoami")
	require.NoError(t, res.err, res.errOut)
	assert.Equal(t, "Bearer "+testToken, blog.last().Auth)
	assert.Contains(t, res.out, `"username": "admin"`)

	res = env.run("auth", "logout")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "Logged out.")

	res = env.run("auth", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Not logged in")
}

func TestAuth_StatusJSON(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)
	env.login(t)

	res := env.run("auth", "status", "--format", "json")
	require.NoError(t, res.err)

	var status struct {
		LoggedIn    bool           `json:"logged_in"`
		Backend     string         `json:"backend"`
		Fingerprint string         `json:"token_fingerprint"`
		User        map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &status))
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "file", status.Backend)
	assert.Equal(t, session.Fingerprint(testToken), status.Fingerprint)
	assert.Equal(t, "admin", status.User["username"])
}

func TestAuth_LoginRejected(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)

	res := env.run("auth", "login", "-u", "admin", "-p", "wrong")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), string(errors.ErrCodeLoginFailed))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(res.err))

	_, err := os.Stat(env.sessionPath)
	if err == nil {
		data, _ := os.ReadFile(env.sessionPath)
		assert.NotContains(t, string(data), testToken)
	}
}

func TestAuth_LoginMissingCredentials(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)

	res := env.run("auth", "login", "-u", "admin")
	require.Error(t, res.err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(res.err))
	assert.Zero(t, blog.count(), "no request without credentials")
}

func TestAuth_WhoamiRequiresLogin(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)

	res := env.run("auth", "whoami")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), string(errors.ErrCodeNotLoggedIn))
	assert.Zero(t, blog.count())
}

func TestAuth_LogoutWhenLoggedOut(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)

	res := env.run("auth", "logout")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "Not logged in.")
}

func TestAuth_LoginFallbackRejectedIsNotSessionEnd(t *testing.T) {
	blog := newFakeBlog(t)
	blog.bareLogin = true
	env := newTestEnv(t, blog.srv.URL)

	res := env.run("auth", "login", "-u", "admin", "-p", "secret")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), string(errors.ErrCodeLoginFailed))
	assert.NotContains(t, res.errOut, "Session ended by the server")
	assert.Equal(t, "/api/auth/current-user", blog.last().Path)

	res = env.run("auth", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Not logged in")
}

func TestAuth_CorruptSessionFileRecovers(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)
	require.NoError(t, os.WriteFile(env.sessionPath, []byte("{not json"), 0o600))

	res := env.run("auth", "logout")
	require.NoError(t, res.err, res.errOut)
	_, err := os.Stat(env.sessionPath)
	assert.True(t, os.IsNotExist(err), "logout removes the corrupt file")

	require.NoError(t, os.WriteFile(env.sessionPath, []byte("{not json"), 0o600))
	env.login(t)

	res = env.run("auth", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Logged in")
}

func TestAuth_EphemeralSessionIsNotPersisted(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)

	res := env.run("--ephemeral", "auth", "login", "-u", "admin", "-p", "secret")
	require.NoError(t, res.err, res.errOut)

	_, err := os.Stat(env.sessionPath)
	assert.True(t, os.IsNotExist(err), "ephemeral login must not write the session file")

	res = env.run("auth", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Not logged in")
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	blog := newFakeBlog(t)
	env := newTestEnv(t, blog.srv.URL)
	env.login(t)

	blog.expireSessions()

	res := env.run("settings", "site", "get")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), string(errors.ErrCodeSessionExpired))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(res.err))
	assert.Contains(t, res.errOut, "Session ended by the server")
	assert.Equal(t, "Bearer "+testToken, blog.last().Auth)

	res = env.run("auth", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Not logged in")
}
