package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/redis/go-redis/v9"
)

var _ Persister = (*RedisPersister)(nil)

// RedisPersister stores the identity in Redis, for clients that share one
// operator session across several processes or hosts.
type RedisPersister struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

type RedisPersisterOption func(*RedisPersister)

// WithRedisKeySuffix scopes the key, e.g. per operator profile.
func WithRedisKeySuffix(suffix string) RedisPersisterOption {
	return func(r *RedisPersister) {
		if suffix != "" {
			r.key = StorageKey + ":" + suffix
		}
	}
}

// WithRedisTTL expires the stored identity. Zero keeps it until cleared.
func WithRedisTTL(ttl time.Duration) RedisPersisterOption {
	return func(r *RedisPersister) {
		r.ttl = ttl
	}
}

func NewRedisPersister(client redis.Cmdable, options ...RedisPersisterOption) *RedisPersister {
	r := &RedisPersister{
		client: client,
		key:    StorageKey,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Key is the Redis key the identity is stored under.
func (r *RedisPersister) Key() string {
	return r.key
}

func (r *RedisPersister) Load(ctx context.Context) (*apimodel.Identity, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var identity apimodel.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("decode identity from %s: %w", r.key, err)
	}
	return &identity, nil
}

func (r *RedisPersister) Save(ctx context.Context, identity apimodel.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisPersister) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
