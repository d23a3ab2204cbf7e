// Package session keeps the login state of a profile: the bearer token and
// the user info record returned by the login endpoint.
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/log"
)

// Keys under which the session is persisted
const (
	TokenKey    = "token"
	UserInfoKey = "userInfo"
)

// UserInfo is the user record returned at login. Its fields are whatever the
// server sends; the client treats it as opaque JSON.
type UserInfo map[string]any

var (
	// ErrNoUserInfo is returned by Store.UserInfo when nothing is stored
	ErrNoUserInfo = stderrors.New("no user info stored")

	// ErrUserInfoDecode matches any *DecodeError
	ErrUserInfoDecode = stderrors.New("stored user info is not valid JSON")
)

// DecodeError reports stored text that could not be decoded
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Key + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUserInfoDecode) hold for every DecodeError
func (e *DecodeError) Is(target error) bool {
	return target == ErrUserInfoDecode
}

// Store reads and writes the session through a Backend.
//
// The token is written before the user info and removed after it, so a
// reader never sees user info without a token.
type Store struct {
	backend Backend
	logger  *log.Logger
	mu      sync.Mutex
}

// NewStore wraps backend. A nil logger falls back to the process default.
func NewStore(backend Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Store{backend: backend, logger: logger}
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Token returns the stored bearer token and whether one is present
func (s *Store) Token(ctx context.Context) (string, bool, error) {
	token, ok, err := s.backend.Get(ctx, TokenKey)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStoreRead, "failed to read token", err)
	}
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// SetToken stores token
func (s *Store) SetToken(ctx context.Context, token string) error {
	if err := s.backend.Set(ctx, TokenKey, token); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to store token", err)
	}
	return nil
}

// RemoveToken deletes the token
func (s *Store) RemoveToken(ctx context.Context) error {
	if err := s.backend.Delete(ctx, TokenKey); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to remove token", err)
	}
	return nil
}

// UserInfo decodes the stored user record.
// It returns ErrNoUserInfo when nothing is stored and an error matching
// ErrUserInfoDecode when the stored text is not a JSON object.
func (s *Store) UserInfo(ctx context.Context) (UserInfo, error) {
	raw, ok, err := s.backend.Get(ctx, UserInfoKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, "failed to read user info", err)
	}
	if !ok {
		return nil, ErrNoUserInfo
	}

	var info UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, errors.NewStoreDecodeError(UserInfoKey, &DecodeError{Key: UserInfoKey, Err: err})
	}
	if info == nil {
		// "null" decodes without error but is not a record
		return nil, errors.NewStoreDecodeError(UserInfoKey, &DecodeError{Key: UserInfoKey, Err: stderrors.New("value is null")})
	}
	return info, nil
}

// LookupUserInfo is UserInfo with every failure reported as absent.
// Read and decode failures are logged at warn level.
func (s *Store) LookupUserInfo(ctx context.Context) (UserInfo, bool) {
	info, err := s.UserInfo(ctx)
	if err != nil {
		if !stderrors.Is(err, ErrNoUserInfo) {
			s.logger.WithError(err).WarnContext(ctx, "ignoring unreadable user info")
		}
		return nil, false
	}
	return info, true
}

// SetUserInfo JSON-encodes info and stores it
func (s *Store) SetUserInfo(ctx context.Context, info UserInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to encode user info", err)
	}
	if err := s.backend.Set(ctx, UserInfoKey, string(data)); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to store user info", err)
	}
	return nil
}

// RemoveUserInfo deletes the user record
func (s *Store) RemoveUserInfo(ctx context.Context) error {
	if err := s.backend.Delete(ctx, UserInfoKey); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to remove user info", err)
	}
	return nil
}

// IsAuthenticated reports whether a token is present. The token is not validated.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	_, ok, err := s.Token(ctx)
	if err != nil {
		s.logger.WithError(err).WarnContext(ctx, "treating unreadable token as absent")
		return false
	}
	return ok
}

// Login stores the token and user info of a successful login
func (s *Store) Login(ctx context.Context, token string, info UserInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.SetToken(ctx, token); err != nil {
		return err
	}
	if info == nil {
		return s.RemoveUserInfo(ctx)
	}
	return s.SetUserInfo(ctx, info)
}

// Logout removes the user info and the token. It is idempotent.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.RemoveUserInfo(ctx); err != nil {
		return err
	}
	return s.RemoveToken(ctx)
}
