// Package tokenrepo keeps revoked JWT ids in Redis until their natural
// expiry, backing the logout endpoint.
package tokenrepo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisStore struct{ rdb *redis.Client }

func NewRedis(addr string) Store {
	return &redisStore{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *redisStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// token already expired, nothing to track
		return nil
	}
	return s.rdb.Set(ctx, key(jti), "1", ttl).Err()
}

func (s *redisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func key(jti string) string { return "revoked:" + jti }
