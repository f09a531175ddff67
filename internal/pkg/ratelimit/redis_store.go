package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisStore creates a counter store shared across instances. Window
// expiry is handled by Redis key TTLs, so no janitor is needed.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client, ctx: context.Background()}
}

func (s *redisStore) Incr(key string, window time.Duration) (int, error) {
	rkey := "ratelimit:" + key
	count, err := s.client.Incr(s.ctx, rkey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(s.ctx, rkey, window).Err(); err != nil {
			return int(count), err
		}
	}
	return int(count), nil
}
