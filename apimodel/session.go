package apimodel

// SessionResponse is the payload returned by the session endpoints.
// Both /auth/login and /auth/refresh answer with it, wrapped in an Envelope.
// The refresh credential never appears here: it travels as an HTTP-only cookie.
type SessionResponse struct {
	// AccessToken is the short-lived bearer credential.
	// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Include in Authorization header: "Bearer <accessToken>"
	// Lifespan: Short-lived (minutes). Held in memory only by clients.
	AccessToken string `json:"accessToken"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 900 (for 15 minutes)
	// Note: This is a hint - actual expiration is in the JWT's "exp" claim
	ExpiresIn int `json:"expiresIn,omitempty"`

	// User is the identity the session belongs to.
	// Always present on login. Optional on refresh, where clients keep the
	// identity they already hold when it is missing.
	User *Identity `json:"user,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Envelope wraps every successful response body: {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is a short machine readable code.
	// Example: "unauthorized", "not_found", "forbidden"
	Error string `json:"error"`

	// ErrorDescription is a human readable explanation.
	// Example: "Missing Authorization header"
	ErrorDescription string `json:"error_description,omitempty"`
}

// Page is a slice of results plus the paging window that produced it.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
