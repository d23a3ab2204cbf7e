// Package api names every endpoint of the journal REST API. Each method maps
// its parameters to exactly one apiclient call and returns the unwrapped body.
package api

import (
	"github.com/felixgeelhaar/journal/internal/apiclient"
)

// API groups the endpoint services over one client
type API struct {
	UserSettings *UserSettingsService
	Articles     *ArticlesService
	Auth         *AuthService
	Moments      *MomentsService
	Timeline     *TimelineService
	SiteSettings *SiteSettingsService
	Files        *FilesService
}

// New binds every service to client
func New(client *apiclient.Client) *API {
	return &API{
		UserSettings: &UserSettingsService{client: client},
		Articles:     &ArticlesService{client: client},
		Auth:         &AuthService{client: client},
		Moments:      &MomentsService{client: client},
		Timeline:     &TimelineService{client: client},
		SiteSettings: &SiteSettingsService{client: client},
		Files:        &FilesService{client: client},
	}
}

// PageQuery selects one page of a paginated listing
type PageQuery struct {
	Page int `url:"page,omitempty"`
	Size int `url:"size,omitempty"`
}
