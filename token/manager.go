package token

import (
	"context"
	"crypto"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/care-portal/apimodel"
	apperrors "github.com/jrsteele09/care-portal/internal/errors"
	"github.com/jrsteele09/care-portal/users"
	"github.com/pkg/errors"
)

const (
	DefaultAccessTokenExpiry = 15 * time.Minute
	DefaultIssuer            = "care-portal"
	DefaultAudience          = "care-portal-api"
)

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email     string        `json:"email,omitempty"`      // Login email of the subject
	Role      apimodel.Role `json:"role"`                 // ADMIN or PATIENT
	PatientID string        `json:"patient_id,omitempty"` // Linked patient record, patients only
}

// UserID returns the subject of the token.
func (c *AccessClaims) UserID() string {
	return c.Subject
}

func (c *AccessClaims) IsAdmin() bool {
	return c.Role == apimodel.RoleAdmin
}

// Manager issues and verifies the short lived bearer tokens. Verification runs
// through an OIDC verifier backed by the signer's static public key.
type Manager struct {
	signer            Signer
	issuer            string
	audience          string
	revokedCache      RevokedTokenCache
	accessTokenExpiry time.Duration
	verifier          *oidc.IDTokenVerifier
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithAudience(audience string) ManagerOption {
	return func(m *Manager) {
		m.audience = audience
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		issuer:       DefaultIssuer,
		audience:     DefaultAudience,
		revokedCache: NewInMemoryRevokedTokenCache(), // Default implementation
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry <= 0 {
		m.accessTokenExpiry = DefaultAccessTokenExpiry
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{signer.PublicKey()}}
	m.verifier = oidc.NewVerifier(m.issuer, keySet, &oidc.Config{
		ClientID:             m.audience,
		SupportedSigningAlgs: []string{signer.Algorithm()},
		Now:                  m.nowFunc,
	})
	return m
}

// AccessTokenExpiry is the lifetime of issued access tokens.
func (c *Manager) AccessTokenExpiry() time.Duration {
	return c.accessTokenExpiry
}

// CreateAccessToken signs a new access token for user.
func (c *Manager) CreateAccessToken(user *users.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("Manager.CreateAccessToken: user is required")
	}
	now := c.nowFunc()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,                                         // The issuer of the token
			Subject:   user.ID,                                          // The user the token was issued to
			Audience:  jwt.ClaimStrings{c.audience},                     // The API the token is intended for
			IssuedAt:  jwt.NewNumericDate(now),                          // Issued At: the time at which the token was issued
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTokenExpiry)), // Expiry: when the token will expire
			ID:        uuid.New().String(),                              // Unique token ID for revocation
		},
		Email: user.Email,
		Role:  user.Role,
	}
	if user.PatientID != nil {
		claims.PatientID = *user.PatientID
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "Manager.CreateAccessToken Sign")
	}
	return signed, nil
}

// Verify checks signature, issuer, audience, expiry and revocation and returns
// the token's claims. Expired tokens wrap ErrTokenExpired, revoked ones
// ErrTokenRevoked and anything else ErrInvalidToken.
func (c *Manager) Verify(ctx context.Context, rawToken string) (*AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	idToken, err := c.verifier.Verify(ctx, rawToken)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, errors.Wrapf(apperrors.ErrTokenExpired, "expired at %s", expired.Expiry.UTC().Format(time.RFC3339))
		}
		return nil, errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}

	var claims AccessClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "token missing jti or sub claim")
	}

	revoked, err := c.revokedCache.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, errors.Wrap(err, "Manager.Verify IsRevoked")
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}
	return &claims, nil
}

// RevokeAccessToken revokes an access token by its jti until it would have
// expired anyway. Tokens that are already expired need no revocation.
func (c *Manager) RevokeAccessToken(ctx context.Context, rawToken string) error {
	claims, err := c.Verify(ctx, rawToken)
	switch {
	case errors.Is(err, apperrors.ErrTokenExpired), errors.Is(err, apperrors.ErrTokenRevoked):
		return nil
	case err != nil:
		return err
	}
	if claims.ExpiresAt == nil {
		return errors.Wrap(apperrors.ErrInvalidToken, "token missing exp claim")
	}
	return c.revokedCache.Add(ctx, claims.ID, claims.ExpiresAt.Time)
}

// GetJWKS returns the JSON Web Key Set for public key distribution
func (c *Manager) GetJWKS() (*JWKS, error) {
	return c.signer.GetJWKS()
}

// CleanupRevokedTokens removes expired tokens from the revocation cache
func (c *Manager) CleanupRevokedTokens() {
	if c.revokedCache != nil {
		c.revokedCache.Cleanup()
	}
}
