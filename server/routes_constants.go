package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Session Routes
	RouteAuthLogin   = "/auth/login"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthMe      = "/auth/me"

	// Record Routes
	RouteRecords = "/api/{kind}"
	RouteRecord  = "/api/{kind}/{id}"

	// Admin Routes
	RouteAdminUsers       = "/admin/users"
	RouteAdminUserBlocked = "/admin/users/{id}/blocked"

	// Operational Routes
	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteHealth        = "/healthz"
	RouteMetrics       = "/metrics"
)
