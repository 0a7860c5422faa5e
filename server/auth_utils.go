package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/internal/errors"
	"github.com/jrsteele09/care-portal/token/refresh"
	"github.com/rs/zerolog"
)

const (
	contentTypeJSON = "application/json"

	maxBodyBytes = 1 << 20

	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Error codes used in ErrorResponse.Error
const (
	errInvalidRequest     = "invalid_request"
	errInvalidCredentials = "invalid_credentials"
	errUnauthorized       = "unauthorized"
	errForbidden          = "forbidden"
	errNotFound           = "not_found"
	errConflict           = "conflict"
	errServerError        = "server_error"
)

// writeJSON writes data wrapped in the {"data": ...} envelope.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apimodel.Envelope[any]{Data: data})
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(apimodel.ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrInvalidCredentials),
		errors.Is(err, errors.ErrInvalidToken),
		errors.Is(err, errors.ErrTokenExpired),
		errors.Is(err, errors.ErrTokenRevoked),
		errors.Is(err, errors.ErrInvalidRefreshToken),
		errors.Is(err, errors.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrUserBlocked), errors.Is(err, errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrUserNotFound),
		errors.Is(err, errors.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrUserExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeServiceError answers with the status statusFor picks. Internal errors
// are logged and their detail kept from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := map[int]string{
		http.StatusBadRequest:   errInvalidRequest,
		http.StatusUnauthorized: errUnauthorized,
		http.StatusForbidden:    errForbidden,
		http.StatusNotFound:     errNotFound,
		http.StatusConflict:     errConflict,
	}[status]

	switch {
	case errors.Is(err, errors.ErrInvalidCredentials):
		code = errInvalidCredentials
	case status == http.StatusInternalServerError:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSONError(w, errServerError, "internal server error", status)
		return
	}
	writeJSONError(w, code, err.Error(), status)
}

// decodeJSON reads a size limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.Wrapf(errors.ErrInvalidRequest, "request body is empty")
		}
		return errors.Wrapf(errors.ErrInvalidRequest, "decode body: %v", err)
	}
	return nil
}

// parsePaging reads offset and limit from the query string.
func parsePaging(r *http.Request) (offset, limit int, err error) {
	limit = defaultPageLimit
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.Wrapf(errors.ErrInvalidRequest, "offset must be a non-negative integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, errors.Wrapf(errors.ErrInvalidRequest, "limit must be a positive integer")
		}
	}
	return offset, min(limit, maxPageLimit), nil
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// setRefreshCookie hands the refresh token to the client. It is HTTP-only and
// scoped to the session routes, so scripts and API calls never see it.
func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, rt *refresh.StoredRefreshToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetRefreshCookieName(),
		Value:    rt.Token,
		Path:     s.config.GetRefreshCookiePath(),
		Expires:  rt.ExpiresAt,
		MaxAge:   int(time.Until(rt.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.config.GetCookieSecure() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetRefreshCookieName(),
		Value:    "",
		Path:     s.config.GetRefreshCookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.GetCookieSecure() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) refreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(s.config.GetRefreshCookieName())
	if err != nil {
		return ""
	}
	return cookie.Value
}
