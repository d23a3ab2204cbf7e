package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/felixgeelhaar/journal/internal/apiclient"
)

// UserSettingsService covers /user-settings
type UserSettingsService struct {
	client *apiclient.Client
}

// Get returns the settings of a user
func (s *UserSettingsService) Get(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     "/user-settings/" + url.PathEscape(userID),
		Endpoint: "/user-settings/{id}",
	})
}

// Update replaces the settings of a user
func (s *UserSettingsService) Update(ctx context.Context, userID string, body any) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPut,
		Path:     "/user-settings/" + url.PathEscape(userID),
		Endpoint: "/user-settings/{id}",
		Body:     body,
	})
}

// SiteSettingsService covers /site-settings
type SiteSettingsService struct {
	client *apiclient.Client
}

// Get returns the site settings
func (s *SiteSettingsService) Get(ctx context.Context) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/site-settings"})
}

// Update replaces the site settings
func (s *SiteSettingsService) Update(ctx context.Context, body any) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/site-settings",
		Body:   body,
	})
}
