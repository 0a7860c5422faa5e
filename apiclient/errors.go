package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/care-portal/apimodel"
)

const maxErrorDescription = 256

var (
	// ErrUnauthenticated is returned without touching the network when a
	// request needs a session and none exists.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrAuthorizationExpired marks the first 401 of a request. It is recovered
	// by a refresh and only reaches the caller when the caller's context ends
	// while it is waiting for that refresh.
	ErrAuthorizationExpired = errors.New("authorization expired")

	// ErrRefreshFailed is delivered to every request waiting on a renewal that
	// failed. The session has been cleared by the time it is returned.
	ErrRefreshFailed = errors.New("session refresh failed")

	// ErrRetryExhausted is returned when a request is rejected with 401 again
	// after being resent with a freshly renewed token.
	ErrRetryExhausted = errors.New("request rejected after token refresh")

	// ErrMalformedResponse is returned for 2xx responses whose body does not
	// decode into the expected envelope.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrResponseTooLarge is returned for 2xx responses whose body exceeds the
	// client's read limit. Nothing of the body is decoded.
	ErrResponseTooLarge = errors.New("response too large")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	RequestID   string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api: %d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, ": %s", e.Description)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request %s)", e.RequestID)
	}
	return b.String()
}

// TransportError is a failure to get any response at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// SessionEnded reports whether err means the caller no longer has a session.
func SessionEnded(err error) bool {
	return errors.Is(err, ErrRefreshFailed) || errors.Is(err, ErrUnauthenticated)
}

func newAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		RequestID:  requestID,
	}
	var payload apimodel.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		apiErr.Code = payload.Error
		apiErr.Description = payload.ErrorDescription
		return apiErr
	}
	apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	desc := strings.TrimSpace(string(body))
	if len(desc) > maxErrorDescription {
		cut := maxErrorDescription
		for cut > 0 && !utf8.RuneStart(desc[cut]) {
			cut--
		}
		desc = desc[:cut] + "..."
	}
	apiErr.Description = desc
	return apiErr
}
