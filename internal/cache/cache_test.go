package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nexus/pkg/platform/sentinel"
)

// fakeSharedStore is an in-memory SharedStore with a switchable outage mode.
type fakeSharedStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	down    bool
}

func newFakeSharedStore() *fakeSharedStore {
	return &fakeSharedStore{entries: make(map[string][]byte)}
}

func (f *fakeSharedStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errors.New("connection refused")
	}
	payload, ok := f.entries[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return payload, nil
}

func (f *fakeSharedStore) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errors.New("connection refused")
	}
	f.entries[key] = payload
	return nil
}

func (f *fakeSharedStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errors.New("connection refused")
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeSharedStore) Health(context.Context) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return 0, errors.New("connection refused")
	}
	return time.Millisecond, nil
}

type LayeredSuite struct {
	suite.Suite
	local  *MemoryStore
	shared *fakeSharedStore
	cache  *Layered
}

func TestLayeredSuite(t *testing.T) {
	suite.Run(t, new(LayeredSuite))
}

func (s *LayeredSuite) SetupTest() {
	s.local = NewMemoryStore()
	s.shared = newFakeSharedStore()

	var err error
	s.cache, err = NewLayered(s.local, WithSharedStore(s.shared), WithDefaultTTL(time.Hour))
	s.Require().NoError(err)
}

func (s *LayeredSuite) TestNew() {
	s.Run("nil local store returns error", func() {
		_, err := NewLayered(nil)
		s.Error(err)
	})

	s.Run("local-only cache works without shared tier", func() {
		c, err := NewLayered(NewMemoryStore())
		s.Require().NoError(err)

		c.Set(context.Background(), "k", []byte("v"), time.Minute)
		payload, ok := c.Get(context.Background(), "k")
		s.True(ok)
		s.Equal([]byte("v"), payload)
	})
}

func (s *LayeredSuite) TestWriteThrough() {
	ctx := context.Background()
	s.cache.Set(ctx, "k", []byte("v"), time.Minute)

	_, ok := s.local.Get("k")
	s.True(ok)
	s.Contains(s.shared.entries, "k")
}

func (s *LayeredSuite) TestSharedHitPopulatesLocal() {
	ctx := context.Background()

	// Seed only the shared tier, as if a peer instance had written it.
	s.shared.entries["k"] = []byte("v")

	payload, ok := s.cache.Get(ctx, "k")
	s.True(ok)
	s.Equal([]byte("v"), payload)

	// The hit warmed the local tier, so the entry survives a shared outage.
	s.Equal(1, s.local.Len())
	s.shared.down = true

	payload, ok = s.cache.Get(ctx, "k")
	s.True(ok)
	s.Equal([]byte("v"), payload)
}

func (s *LayeredSuite) TestSharedCheckedFirst() {
	ctx := context.Background()

	// Divergent tiers: the shared value wins.
	s.local.Set("k", []byte("stale"), time.Hour)
	s.shared.entries["k"] = []byte("fresh")

	payload, ok := s.cache.Get(ctx, "k")
	s.True(ok)
	s.Equal([]byte("fresh"), payload)
}

func (s *LayeredSuite) TestSharedMissFallsThroughToLocal() {
	ctx := context.Background()
	s.local.Set("k", []byte("v"), time.Hour)

	payload, ok := s.cache.Get(ctx, "k")
	s.True(ok)
	s.Equal([]byte("v"), payload)
}

func (s *LayeredSuite) TestMissWhenAbsentFromBothTiers() {
	_, ok := s.cache.Get(context.Background(), "absent")
	s.False(ok)
}

func (s *LayeredSuite) TestSilentDegradationWhenSharedDown() {
	ctx := context.Background()
	s.shared.down = true

	// Writes and reads keep working through the local tier.
	s.cache.Set(ctx, "k", []byte("v"), time.Minute)
	payload, ok := s.cache.Get(ctx, "k")
	s.True(ok)
	s.Equal([]byte("v"), payload)
}

func (s *LayeredSuite) TestDeleteRemovesFromBothTiers() {
	ctx := context.Background()
	s.cache.Set(ctx, "k", []byte("v"), time.Minute)

	s.cache.Delete(ctx, "k")

	_, ok := s.cache.Get(ctx, "k")
	s.False(ok)
	s.NotContains(s.shared.entries, "k")
}

func (s *LayeredSuite) TestStats() {
	ctx := context.Background()
	s.cache.Set(ctx, "k", []byte("v"), time.Minute)

	_, _ = s.cache.Get(ctx, "k")      // hit
	_, _ = s.cache.Get(ctx, "absent") // miss

	stats := s.cache.Stats(ctx)
	s.Equal(1, stats.LocalItems)
	s.Equal(uint64(1), stats.Hits)
	s.Equal(uint64(1), stats.Misses)
	s.True(stats.SharedEnabled)
	s.Require().NotNil(stats.SharedHealthy)
	s.True(*stats.SharedHealthy)
	s.NotNil(stats.SharedLatency)
}

func (s *LayeredSuite) TestStatsReportsSharedOutage() {
	s.shared.down = true

	stats := s.cache.Stats(context.Background())
	s.Require().NotNil(stats.SharedHealthy)
	s.False(*stats.SharedHealthy)
	s.Nil(stats.SharedLatency)
}

func TestKey(t *testing.T) {
	suite.Run(t, new(KeySuite))
}

type KeySuite struct {
	suite.Suite
}

func (s *KeySuite) TestStableAcrossCalls() {
	s.Equal(Key("registry", "88888888"), Key("registry", "88888888"))
}

func (s *KeySuite) TestNormalizesQuery() {
	s.Equal(Key("registry", "  ACME  "), Key("registry", "acme"))
}

func (s *KeySuite) TestDistinctSourceTagsDiverge() {
	s.NotEqual(Key("registry", "88888888"), Key("debt", "88888888"))
}
