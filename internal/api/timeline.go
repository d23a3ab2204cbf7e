package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/journal/internal/apiclient"
)

// TimelineFilter narrows GET /timeline/events
type TimelineFilter struct {
	Category string `url:"category,omitempty"`
	Year     int    `url:"year,omitempty"`
}

// TimelineService covers /timeline
type TimelineService struct {
	client *apiclient.Client
}

// Events returns timeline events matching filter
func (s *TimelineService) Events(ctx context.Context, filter TimelineFilter) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/timeline/events",
		Query:  filter,
	})
}

// Categories returns the timeline categories
func (s *TimelineService) Categories(ctx context.Context) (json.RawMessage, error) {
	return s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/timeline/categories"})
}
