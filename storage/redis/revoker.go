package redisstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core/user"
)

const keyPrefix = "revoked-token:"

// Revoker keeps revoked JWT IDs in Redis until the token would have expired.
type Revoker struct {
	client  *redis.Client
	nowFunc func() time.Time
}

var _ user.TokenRevoker = (*Revoker)(nil) // interface compliance check

// NewRevoker connects to the Redis server at `url` (redis://[:password@]host:port/db).
func NewRevoker(ctx context.Context, url string) (*Revoker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return &Revoker{client: client, nowFunc: time.Now}, nil
}

func (r *Revoker) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.nowFunc())
	if ttl <= 0 {
		return nil // already expired
	}
	if err := r.client.Set(ctx, keyPrefix+jti, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return nil
}

func (r *Revoker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return n > 0, nil
}

func (r *Revoker) Close() error {
	return r.client.Close()
}
