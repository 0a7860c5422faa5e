package server

import (
	"net/http"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/auth"
	"github.com/rs/zerolog"
)

// LoginHandler exchanges email and password for an access token in the body
// and a refresh token in an HTTP-only cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}

		session, err := s.auth.Login(r.Context(), req.Email, req.Password)
		s.metrics.Logins.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			zerolog.Ctx(r.Context()).Info().Err(err).Msg("login refused")
			writeServiceError(w, r, err)
			return
		}

		s.writeSession(w, r, session)
	}
}

// RefreshHandler rotates the refresh cookie and returns a new access token.
// It takes no body and ignores any Authorization header. A refused refresh
// clears the cookie, the client has to log in again.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := s.refreshTokenFromRequest(r)
		if refreshToken == "" {
			s.metrics.Refreshes.WithLabelValues(outcomeRejected).Inc()
			writeJSONError(w, errUnauthorized, "Missing refresh cookie", http.StatusUnauthorized)
			return
		}

		session, err := s.auth.Refresh(r.Context(), refreshToken)
		s.metrics.Refreshes.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			zerolog.Ctx(r.Context()).Info().Err(err).Msg("refresh refused")
			s.clearRefreshCookie(w, r)
			writeServiceError(w, r, err)
			return
		}

		s.writeSession(w, r, session)
	}
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	s.setRefreshCookie(w, r, session.RefreshToken)
	w.Header().Set("Cache-Control", "no-store")
	zerolog.Ctx(r.Context()).Info().
		Str("user_id", session.User.ID).
		Str("role", string(session.User.Role)).
		Msg("session issued")
	writeJSON(w, http.StatusOK, session.Response())
}

// LogoutHandler drops the refresh token and revokes the bearer token when one
// is presented. It succeeds even when neither is valid any more.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, _ := bearerToken(r)
		if err := s.auth.Logout(r.Context(), s.refreshTokenFromRequest(r), accessToken); err != nil {
			writeServiceError(w, r, err)
			return
		}
		s.clearRefreshCookie(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// MeHandler returns the identity behind the access token.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value(ContextKeyUserID).(string)
		user, err := s.auth.Me(r.Context(), userID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user.ToIdentity())
	}
}

// UpdateProfileHandler edits the caller's own names and email.
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update apimodel.IdentityUpdate
		if err := decodeJSON(w, r, &update); err != nil {
			writeServiceError(w, r, err)
			return
		}

		userID, _ := r.Context().Value(ContextKeyUserID).(string)
		user, err := s.auth.UpdateProfile(r.Context(), userID, update)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user.ToIdentity())
	}
}
