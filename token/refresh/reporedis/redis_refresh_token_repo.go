package refreshreporedis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrsteele09/care-portal/internal/errors"
	"github.com/jrsteele09/care-portal/token/refresh"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "care-portal/refresh/token/"
	userKeyPrefix  = "care-portal/refresh/user/"
)

var _ refresh.Repo = (*RedisRefreshTokenRepo)(nil)

// RedisRefreshTokenRepo keeps refresh tokens in Redis so they survive server
// restarts and are shared between instances. Keys expire with the token.
type RedisRefreshTokenRepo struct {
	client  redis.Cmdable
	nowFunc func() time.Time
}

func NewRedisRefreshTokenRepo(client redis.Cmdable) *RedisRefreshTokenRepo {
	return &RedisRefreshTokenRepo{client: client, nowFunc: time.Now}
}

func (r *RedisRefreshTokenRepo) Upsert(ctx context.Context, refreshToken *refresh.StoredRefreshToken) error {
	data, err := json.Marshal(refreshToken)
	if err != nil {
		return pkgerrors.Wrap(err, "RedisRefreshTokenRepo.Upsert Marshal")
	}
	ttl := refreshToken.ExpiresAt.Sub(r.nowFunc())
	if ttl <= 0 {
		return pkgerrors.Wrap(errors.ErrRefreshTokenExpired, "RedisRefreshTokenRepo.Upsert")
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKeyPrefix+refreshToken.Token, data, ttl)
		pipe.Set(ctx, userKeyPrefix+refreshToken.UserID, refreshToken.Token, ttl)
		return nil
	})
	return pkgerrors.Wrap(err, "RedisRefreshTokenRepo.Upsert")
}

func (r *RedisRefreshTokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.Take(ctx, token)
	return err
}

func (r *RedisRefreshTokenRepo) Get(ctx context.Context, token string) (*refresh.StoredRefreshToken, error) {
	data, err := r.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	return decode(data, err)
}

// Take uses GETDEL so only one caller can consume a token.
func (r *RedisRefreshTokenRepo) Take(ctx context.Context, token string) (*refresh.StoredRefreshToken, error) {
	rt, err := decode(r.client.GetDel(ctx, tokenKeyPrefix+token).Bytes())
	if err != nil {
		return nil, err
	}
	if err := r.unlinkUser(ctx, rt.UserID, token); err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *RedisRefreshTokenRepo) GetByUserID(ctx context.Context, userID string) (*refresh.StoredRefreshToken, error) {
	token, err := r.client.Get(ctx, userKeyPrefix+userID).Result()
	if pkgerrors.Is(err, redis.Nil) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "RedisRefreshTokenRepo.GetByUserID")
	}
	return r.Get(ctx, token)
}

func (r *RedisRefreshTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	token, err := r.client.GetDel(ctx, userKeyPrefix+userID).Result()
	if pkgerrors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(err, "RedisRefreshTokenRepo.DeleteByUserID")
	}
	return pkgerrors.Wrap(r.client.Del(ctx, tokenKeyPrefix+token).Err(), "RedisRefreshTokenRepo.DeleteByUserID Del")
}

// unlinkUser drops the user index when it still points at token.
func (r *RedisRefreshTokenRepo) unlinkUser(ctx context.Context, userID, token string) error {
	current, err := r.client.Get(ctx, userKeyPrefix+userID).Result()
	if pkgerrors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(err, "RedisRefreshTokenRepo.unlinkUser")
	}
	if current != token {
		return nil
	}
	return pkgerrors.Wrap(r.client.Del(ctx, userKeyPrefix+userID).Err(), "RedisRefreshTokenRepo.unlinkUser Del")
}

func decode(data []byte, err error) (*refresh.StoredRefreshToken, error) {
	if pkgerrors.Is(err, redis.Nil) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "RedisRefreshTokenRepo")
	}
	var rt refresh.StoredRefreshToken
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, pkgerrors.Wrap(err, "RedisRefreshTokenRepo Unmarshal")
	}
	return &rt, nil
}
