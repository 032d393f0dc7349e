package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	platformRedis "nexus/internal/platform/redis"
	"nexus/pkg/platform/sentinel"
)

const redisKeyPrefix = "nexus:graph:"

// RedisStore is the shared L2 tier backed by Redis. Entries carry their TTL
// in Redis itself, so expiry is handled server-side.
type RedisStore struct {
	client *platformRedis.Client
}

func NewRedisStore(client *platformRedis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return payload, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Health reports reachability and round-trip latency of the shared tier.
func (s *RedisStore) Health(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.client.Health(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
