package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/journal/internal/apiclient"
	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/session"
)

// Credentials is the login request body
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the part of the login response the client keeps
type LoginResult struct {
	Token    string
	UserInfo session.UserInfo
	Raw      json.RawMessage
}

// AuthService covers /auth
type AuthService struct {
	client *apiclient.Client
}

// Login exchanges credentials for a token. The request never carries an
// Authorization header. It does not touch the session store.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   apiclient.LoginPath,
		Body:   creds,
	})
}

// CurrentUser returns the user the stored token belongs to
func (s *AuthService) CurrentUser(ctx context.Context) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/auth/current-user"})
}

// loginBody matches the shapes the login endpoint answers with: flat, or
// wrapped in a "data" envelope, with the user under "userInfo" or "user"
type loginBody struct {
	Token    string           `json:"token"`
	UserInfo session.UserInfo `json:"userInfo"`
	User     session.UserInfo `json:"user"`
	Data     *loginBody       `json:"data"`
}

// ParseLoginResponse extracts the token and user record from a login response
func ParseLoginResponse(raw json.RawMessage) (*LoginResult, error) {
	var body loginBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoginResponse, "login response is not a JSON object", err)
	}
	if body.Token == "" && body.Data != nil {
		body = *body.Data
	}
	if body.Token == "" {
		return nil, errors.New(errors.ErrCodeLoginResponse, "login response carries no token").
			WithSuggestion("Check that api.url points at the journal server")
	}

	info := body.UserInfo
	if info == nil {
		info = body.User
	}
	return &LoginResult{Token: body.Token, UserInfo: info, Raw: raw}, nil
}

// ParseUserInfo decodes a current-user response, unwrapping a "data" envelope
func ParseUserInfo(raw json.RawMessage) (session.UserInfo, error) {
	var envelope struct {
		Data session.UserInfo `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var info session.UserInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIDecode, "current user response is not a JSON object", err)
	}
	return info, nil
}

// SignIn logs in and saves the session in store. When the login response
// carries no user record it is fetched from /auth/current-user with the new
// token.
func (s *AuthService) SignIn(ctx context.Context, creds Credentials, store *session.Store) (*LoginResult, error) {
	raw, err := s.Login(ctx, creds)
	if err != nil {
		return nil, errors.NewLoginFailedError(creds.Username, err)
	}
	result, err := ParseLoginResponse(raw)
	if err != nil {
		return nil, err
	}

	if result.UserInfo == nil {
		if err := store.SetToken(ctx, result.Token); err != nil {
			return nil, err
		}
		rawUser, err := s.CurrentUser(ctx)
		if err == nil {
			result.UserInfo, err = ParseUserInfo(rawUser)
		}
		if err != nil {
			_ = store.Logout(ctx)
			return nil, errors.NewLoginFailedError(creds.Username, err)
		}
	}

	if err := store.Login(ctx, result.Token, result.UserInfo); err != nil {
		return nil, err
	}
	return result, nil
}
