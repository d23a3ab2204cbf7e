package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/felixgeelhaar/journal/internal/apiclient"
)

// ArticleFilter narrows GET /articles
type ArticleFilter struct {
	Category string `url:"category,omitempty"`
	Tag      string `url:"tag,omitempty"`
	Keyword  string `url:"keyword,omitempty"`
	Status   string `url:"status,omitempty"`
	PageQuery
}

// ArticlesService covers /articles
type ArticlesService struct {
	client *apiclient.Client
}

// List returns articles matching filter
func (s *ArticlesService) List(ctx context.Context, filter ArticleFilter) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/articles",
		Query:  filter,
	})
}

// Page returns one page of the article listing
func (s *ArticlesService) Page(ctx context.Context, q PageQuery) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/articles/list",
		Query:  q,
	})
}

// Get returns one article
func (s *ArticlesService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     "/articles/" + url.PathEscape(id),
		Endpoint: "/articles/{id}",
	})
}

// Categories returns the article categories
func (s *ArticlesService) Categories(ctx context.Context) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/articles/categories"})
}

// Tags returns the article tags
func (s *ArticlesService) Tags(ctx context.Context) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/articles/tags"})
}

// Create publishes a new article
func (s *ArticlesService) Create(ctx context.Context, body any) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/articles",
		Body:   body,
	})
}

// Update replaces an article
func (s *ArticlesService) Update(ctx context.Context, id string, body any) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPut,
		Path:     "/articles/" + url.PathEscape(id),
		Endpoint: "/articles/{id}",
		Body:     body,
	})
}

// Delete removes an article
func (s *ArticlesService) Delete(ctx context.Context, id string) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodDelete,
		Path:     "/articles/" + url.PathEscape(id),
		Endpoint: "/articles/{id}",
	})
}
