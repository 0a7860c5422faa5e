package refresh

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/care-portal/internal/config"
	"github.com/jrsteele09/care-portal/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.AuthConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.AuthConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token and stores it. A user holds a single
// refresh token, so any previous one stops working.
func (m *Manager) Create(ctx context.Context, userID string) (*StoredRefreshToken, error) {
	if err := m.repo.DeleteByUserID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to delete existing refresh token: %w", err)
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength()) // Configured length (default: 32 bytes = 256 bits)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	now := NowTimeFunc()
	rt := &StoredRefreshToken{
		Token:     hex.EncodeToString(tokenBytes),
		UserID:    userID,
		Iat:       now,
		ExpiresAt: now.Add(m.config.GetRefreshTokenExpiry()),
	}
	if err := m.repo.Upsert(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt, nil
}

// Rotate consumes token and issues its replacement for the same user. The old
// token is gone after the first call, so presenting it again fails with
// ErrInvalidRefreshToken.
func (m *Manager) Rotate(ctx context.Context, token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, errors.ErrInvalidRefreshToken
	}
	rt, err := m.repo.Take(ctx, token)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRefreshToken, "rotate: %v", err)
	}
	if m.IsExpired(rt) {
		return nil, errors.ErrRefreshTokenExpired
	}
	return m.Create(ctx, rt.UserID)
}

// Get retrieves an unexpired refresh token from storage
func (m *Manager) Get(ctx context.Context, token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(ctx, token)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRefreshToken, "get: %v", err)
	}
	if m.IsExpired(rt) {
		return nil, errors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// Delete removes a refresh token from storage. Unknown tokens are ignored.
func (m *Manager) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.Delete(ctx, token); err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}
	return nil
}

// RevokeUser removes whatever refresh token the user holds.
func (m *Manager) RevokeUser(ctx context.Context, userID string) error {
	return m.repo.DeleteByUserID(ctx, userID)
}

// IsExpired checks if a refresh token has passed its expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return !NowTimeFunc().Before(rt.ExpiresAt)
}
