package token

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RevokedTokenCache records access tokens revoked before they expire, keyed by jti
type RevokedTokenCache interface {
	Add(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Cleanup() // Remove expired entries
}

// InMemoryRevokedTokenCache is a simple in-memory implementation
type InMemoryRevokedTokenCache struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	nowFunc func() time.Time
}

func NewInMemoryRevokedTokenCache() *InMemoryRevokedTokenCache {
	return &InMemoryRevokedTokenCache{
		revoked: make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

func (c *InMemoryRevokedTokenCache) Add(_ context.Context, jti string, exp time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(_ context.Context, jti string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists, nil
}

func (c *InMemoryRevokedTokenCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowFunc()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
}

const revokedKeyPrefix = "care-portal/revoked/"

// RedisRevokedTokenCache shares revocations between server instances. Each
// entry expires in Redis together with the token it revokes.
type RedisRevokedTokenCache struct {
	client  redis.Cmdable
	nowFunc func() time.Time
}

func NewRedisRevokedTokenCache(client redis.Cmdable) *RedisRevokedTokenCache {
	return &RedisRevokedTokenCache{client: client, nowFunc: time.Now}
}

func (c *RedisRevokedTokenCache) Add(ctx context.Context, jti string, exp time.Time) error {
	ttl := exp.Sub(c.nowFunc())
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, revokedKeyPrefix+jti, exp.Unix(), ttl).Err(); err != nil {
		return errors.Wrap(err, "RedisRevokedTokenCache.Add")
	}
	return nil
}

func (c *RedisRevokedTokenCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "RedisRevokedTokenCache.IsRevoked")
	}
	return n > 0, nil
}

// Cleanup is a no-op, Redis expires entries itself.
func (c *RedisRevokedTokenCache) Cleanup() {}
