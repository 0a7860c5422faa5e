package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/care-portal/auth"
	"github.com/jrsteele09/care-portal/internal/config"
	"github.com/jrsteele09/care-portal/records"
	"github.com/jrsteele09/care-portal/token"
	"github.com/jrsteele09/care-portal/token/refresh"
	"github.com/jrsteele09/care-portal/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Repos holds the storage the server runs on.
type Repos struct {
	Users         users.UserRepo // Repository for user data
	Records       records.Repo   // Repository for clinical records
	RefreshTokens refresh.Repo   // Repository for refresh tokens
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	router       chi.Router
	routes       []string
	config       config.Config
	auth         *auth.Service
	repos        Repos
	metrics      *Metrics
	gatherer     prometheus.Gatherer
	healthChecks map[string]HealthCheck
	logger       zerolog.Logger
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry registers the HTTP metrics with reg and serves reg on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = NewMetrics(reg)
		s.gatherer = reg
	}
}

// WithHealthCheck adds a dependency to GET /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.healthChecks[name] = check
	}
}

func New(cfg config.Config, repos Repos, tokens *token.Manager, options ...Option) (*Server, error) {
	if repos.Users == nil || repos.Records == nil || repos.RefreshTokens == nil {
		return nil, fmt.Errorf("[Server New] users, records and refresh token repos are required")
	}

	authService, err := auth.NewService(repos.Users, tokens, refresh.NewManager(repos.RefreshTokens, cfg))
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create auth service: %w", err)
	}

	s := &Server{
		env:          cfg.GetEnv(),
		router:       chi.NewRouter(),
		config:       cfg,
		auth:         authService,
		repos:        repos,
		healthChecks: make(map[string]HealthCheck),
		logger:       log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = NewMetrics(reg)
		s.gatherer = reg
	}

	// Bootstrap: ensure an admin exists on an empty user store
	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// Auth exposes the session service, mainly for the server binary's housekeeping.
func (s *Server) Auth() *auth.Service {
	return s.auth
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRouteHandler registers handler for a "METHOD /path" pattern.
func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		s.router.Handle(pattern, handler)
		return
	}
	s.router.Method(method, path, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.RegisterRouteHandler(pattern, http.HandlerFunc(handler))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, ok := strings.Cut(route, " ")
		if !ok {
			method, path = "*", route
		}
		s.logger.Debug().Str("method", method).Str("path", path).Msg("route registered")
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
