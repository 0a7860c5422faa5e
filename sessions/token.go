package sessions

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// NewAccessToken wraps a raw bearer string. When the string is a JWT its exp
// claim is read, without verification, to fill in Expiry for display and
// diagnostics. Verification is the server's job; an unparsable token is still
// a valid opaque bearer.
func NewAccessToken(raw string) *oauth2.Token {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	token := &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return token
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		token.Expiry = exp.Time
	}
	return token
}
