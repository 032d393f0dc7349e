//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nexus/internal/cache"
	"nexus/internal/platform/config"
	platformRedis "nexus/internal/platform/redis"
	"nexus/pkg/platform/sentinel"
	"nexus/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *cache.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	client, err := platformRedis.New(config.RedisConfig{URL: s.redis.URL})
	s.Require().NoError(err)
	s.Require().NotNil(client)

	s.store, err = cache.NewRedisStore(client)
	s.Require().NoError(err)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSetAndGet() {
	ctx := context.Background()

	err := s.store.Set(ctx, "key-1", []byte(`{"nodes":[]}`), time.Minute)
	s.Require().NoError(err)

	payload, err := s.store.Get(ctx, "key-1")
	s.Require().NoError(err)
	s.Equal([]byte(`{"nodes":[]}`), payload)
}

func (s *RedisStoreSuite) TestGetMissingKey() {
	_, err := s.store.Get(context.Background(), "absent")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	ctx := context.Background()

	err := s.store.Set(ctx, "short", []byte("v"), time.Second)
	s.Require().NoError(err)

	time.Sleep(1500 * time.Millisecond)

	_, err = s.store.Get(ctx, "short")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDelete() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "key-1", []byte("v"), time.Minute))
	s.Require().NoError(s.store.Delete(ctx, "key-1"))

	_, err := s.store.Get(ctx, "key-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestHealth() {
	latency, err := s.store.Health(context.Background())
	s.NoError(err)
	s.Greater(latency, time.Duration(0))
}
