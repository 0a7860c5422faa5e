package refresh

import (
	"context"
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string) in an HTTP-only
// cookie. All other fields are server-side metadata.
type StoredRefreshToken struct {
	Token     string    `json:"token"`     // The actual random token string (sent to client)
	UserID    string    `json:"userId"`    // Server-side metadata
	Iat       time.Time `json:"iat"`       // Server-side metadata (issued at time)
	ExpiresAt time.Time `json:"expiresAt"` // Server-side metadata (hard expiry)
}

// Repo manages server-side storage of refresh token metadata keyed by the
// token string. Take must be atomic: of two concurrent Takes of the same token
// at most one succeeds.
type Repo interface {
	Upsert(ctx context.Context, refreshToken *StoredRefreshToken) error
	Delete(ctx context.Context, token string) error
	Get(ctx context.Context, token string) (*StoredRefreshToken, error)
	Take(ctx context.Context, token string) (*StoredRefreshToken, error)
	GetByUserID(ctx context.Context, userID string) (*StoredRefreshToken, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
