package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/care-portal/internal/errors"
	"github.com/jrsteele09/care-portal/records"
	"github.com/jrsteele09/care-portal/token"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims stores parsed token claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeyRequestID stores the request correlation id
	ContextKeyRequestID ContextKey = "request_id"
)

// RequireAuth is middleware that validates a Bearer access token.
// Any failure answers 401, which is what makes API clients refresh their
// session and resend.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				unauthorized(w, "Missing Authorization header")
				return
			}
			rawToken, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Invalid Authorization header format")
				return
			}

			claims, err := s.auth.Tokens().Verify(r.Context(), rawToken)
			if err != nil {
				if statusFor(err) == http.StatusInternalServerError {
					writeServiceError(w, r, err)
					return
				}
				unauthorized(w, err.Error())
				return
			}

			logger := zerolog.Ctx(r.Context()).With().Str("user_id", claims.UserID()).Logger()
			ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.UserID())
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(logger.WithContext(ctx)))
		}
	}
}

// RequireAdmin is middleware that validates the admin role.
// Should be chained after RequireAuth to ensure claims are present
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFromContext(r.Context())
			if !ok || !claims.IsAdmin() {
				writeJSONError(w, errForbidden, "Admin access required", http.StatusForbidden)
				return
			}
			next(w, r)
		}
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeJSONError(w, errUnauthorized, description, http.StatusUnauthorized)
}

func claimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims, ok && claims != nil
}

// actorFromContext describes the caller for record access checks.
func actorFromContext(ctx context.Context) (records.Actor, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return records.Actor{}, errors.ErrInvalidToken
	}
	return records.Actor{
		UserID:    claims.UserID(),
		Role:      claims.Role,
		PatientID: claims.PatientID,
	}, nil
}
