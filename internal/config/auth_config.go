package config

import "time"

type AuthConfig interface {
	GetIssuer() string
	GetAudience() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetRefreshCookieName() string
	GetRefreshCookiePath() string
	GetCookieSecure() bool
	GetSigningKeyID() string
	GetSigningKeyPEM() string
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetIssuer() string {
	return GetEnv("TOKEN_ISSUER", EnvVars{}.GetBaseURL())
}

func (Auth) GetAudience() string {
	return GetEnv("TOKEN_AUDIENCE", "care-portal-api")
}

func (Auth) GetAccessTokenExpiry() time.Duration {
	return GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (Auth) GetRefreshTokenExpiry() time.Duration {
	return GetDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour) // 7 days
}

func (Auth) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (Auth) GetRefreshCookieName() string {
	return GetEnv("REFRESH_COOKIE_NAME", "care_refresh")
}

// GetRefreshCookiePath scopes the refresh cookie to the auth routes so it is
// never sent with ordinary API calls.
func (Auth) GetRefreshCookiePath() string {
	return "/auth"
}

func (Auth) GetCookieSecure() bool {
	return GetBoolEnv("COOKIE_SECURE", EnvVars{}.GetEnv() != "DEV")
}

func (Auth) GetSigningKeyID() string {
	return GetEnv("SIGNING_KEY_ID", "")
}

// GetSigningKeyPEM is an RSA private key. Empty means a key is generated at
// start up.
func (Auth) GetSigningKeyPEM() string {
	return GetEnv("SIGNING_KEY_PEM", "")
}
