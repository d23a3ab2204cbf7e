package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/felixgeelhaar/journal/internal/apiclient"
)

// MomentsService covers the short-post endpoints under /complaints
type MomentsService struct {
	client *apiclient.Client
}

// List returns one page of moments
func (s *MomentsService) List(ctx context.Context, q PageQuery) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/complaints/list",
		Query:  q,
	})
}

// Moods returns the moods the server accepts
func (s *MomentsService) Moods(ctx context.Context) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/complaints/moods"})
}

// Get returns one moment
func (s *MomentsService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     "/complaints/" + url.PathEscape(id),
		Endpoint: "/complaints/{id}",
	})
}

// Create posts a new moment
func (s *MomentsService) Create(ctx context.Context, body any) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/complaints",
		Body:   body,
	})
}

// Update replaces a moment
func (s *MomentsService) Update(ctx context.Context, id string, body any) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPut,
		Path:     "/complaints/" + url.PathEscape(id),
		Endpoint: "/complaints/{id}",
		Body:     body,
	})
}

// Delete removes a moment
func (s *MomentsService) Delete(ctx context.Context, id string) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodDelete,
		Path:     "/complaints/" + url.PathEscape(id),
		Endpoint: "/complaints/{id}",
	})
}
