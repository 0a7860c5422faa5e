package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// Applied to every request, including CORS preflights that match no route
	s.router.Use(
		adapt(s.RequestIDMiddleware),
		adapt(s.LoggingMiddleware),
		adapt(s.RecoverMiddleware),
		adapt(s.MetricsMiddleware),
		adapt(s.CorsMiddleware),
	)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, errNotFound, "no route for "+r.URL.Path, http.StatusNotFound)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, errInvalidRequest, r.Method+" not allowed on "+r.URL.Path, http.StatusMethodNotAllowed)
	})

	// SESSION
	s.RegisterRouteFunc("POST "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, s.RefreshHandler())
	s.RegisterRouteFunc("POST "+RouteAuthLogout, s.LogoutHandler())
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("PATCH "+RouteAuthMe, ChainMiddleware(s.UpdateProfileHandler(), s.RequireAuth()))

	// RECORDS
	s.RegisterRouteHandler("GET "+RouteRecords, ChainMiddleware(s.ListRecordsHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("POST "+RouteRecords, ChainMiddleware(s.CreateRecordHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("GET "+RouteRecord, ChainMiddleware(s.GetRecordHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("PUT "+RouteRecord, ChainMiddleware(s.UpdateRecordHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("DELETE "+RouteRecord, ChainMiddleware(s.DeleteRecordHandler(), s.RequireAuth()))

	// ADMIN
	s.RegisterRouteHandler("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersListHandler(), s.RequireAuth(), s.RequireAdmin()))
	s.RegisterRouteHandler("POST "+RouteAdminUsers, ChainMiddleware(s.AdminCreateUserHandler(), s.RequireAuth(), s.RequireAdmin()))
	s.RegisterRouteHandler("PUT "+RouteAdminUserBlocked, ChainMiddleware(s.AdminSetBlockedHandler(), s.RequireAuth(), s.RequireAdmin()))

	// OPERATIONAL
	s.RegisterRouteFunc("GET "+RouteWellKnownJWKS, s.JWKSHandler())
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}
