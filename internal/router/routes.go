package router

// Route names
const (
	RouteHome           = "home"
	RouteArticle        = "article"
	RouteCategory       = "category"
	RouteEssay          = "essay"
	RouteMoments        = "moments"
	RouteMoment         = "moment"
	RouteTimeline       = "timeline"
	RouteAbout          = "about"
	RouteAdminLogin     = "adminLogin"
	RouteAdminDashboard = "adminDashboard"
)

// Route is one entry of the site's route table
type Route struct {
	Name string
	// Pattern uses chi syntax, e.g. /article/{id}
	Pattern      string
	RequiresAuth bool
}

// DefaultRoutes is the site's route table. Only the admin dashboard is guarded.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteHome, Pattern: "/"},
		{Name: RouteArticle, Pattern: "/article/{id}"},
		{Name: RouteCategory, Pattern: "/category/{category}"},
		{Name: RouteEssay, Pattern: "/essay"},
		{Name: RouteMoments, Pattern: "/moments"},
		{Name: RouteMoment, Pattern: "/moment/{id}"},
		{Name: RouteTimeline, Pattern: "/timeline"},
		{Name: RouteAbout, Pattern: "/about"},
		{Name: RouteAdminLogin, Pattern: "/admin/login"},
		{Name: RouteAdminDashboard, Pattern: "/admin/dashboard", RequiresAuth: true},
	}
}
