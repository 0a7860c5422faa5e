package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/auth"
)

const healthCheckTimeout = 2 * time.Second

// AdminUsersListHandler lists all users, ordered by email
func (s *Server) AdminUsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := parsePaging(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		list, total, err := s.auth.ListUsers(r.Context(), offset, limit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		page := apimodel.Page[apimodel.Identity]{
			Items:  make([]apimodel.Identity, 0, len(list)),
			Total:  total,
			Offset: offset,
			Limit:  limit,
		}
		for _, u := range list {
			page.Items = append(page.Items, u.ToIdentity())
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// AdminCreateUserHandler registers a new admin or patient account
func (s *Server) AdminCreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.CreateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}

		user, err := s.auth.CreateUser(r.Context(), auth.NewUser{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      req.Role,
			PatientID: req.PatientID,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, user.ToIdentity())
	}
}

// AdminSetBlockedHandler blocks or unblocks a user
func (s *Server) AdminSetBlockedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.BlockUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}

		user, err := s.auth.SetBlocked(r.Context(), chi.URLParam(r, "id"), req.Blocked)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user.ToIdentity())
	}
}

// JWKSHandler publishes the access token verification keys. The body is a
// plain JWK Set, not wrapped in the data envelope.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.auth.GetJWKS()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		_ = json.NewEncoder(w).Encode(jwks)
	}
}

// HealthHandler runs every registered health check and answers 503 when one
// fails.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		names := make([]string, 0, len(s.healthChecks))
		for name := range s.healthChecks {
			names = append(names, name)
		}
		sort.Strings(names)

		status := http.StatusOK
		checks := make(map[string]string, len(names))
		for _, name := range names {
			if err := s.healthChecks[name](ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "unavailable"
		}
		writeJSON(w, status, map[string]any{"status": overall, "checks": checks})
	}
}
