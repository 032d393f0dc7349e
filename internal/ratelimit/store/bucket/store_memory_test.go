package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testCapacity = 10.0
	testRate     = 2.0 // tokens per second
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *InMemoryBucketStoreSuite) TestTake() {
	s.Run("new bucket starts full", func() {
		result, err := s.store.Take(s.ctx, "key:full", testCapacity, testRate, 1)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.InDelta(testCapacity-1, result.Remaining, 1e-9)
	})

	s.Run("capacity plus one yields exactly capacity allows", func() {
		allowed := 0
		for range int(testCapacity) + 1 {
			result, err := s.store.Take(s.ctx, "key:burst", testCapacity, testRate, 1)
			s.Require().NoError(err)
			if result.Allowed {
				allowed++
			} else {
				// Deficit of one token refills in 1/rate seconds.
				s.InDelta(1.0/testRate, result.RetryAfter, 1e-9)
			}
		}
		s.Equal(int(testCapacity), allowed)
	})

	s.Run("tokens never exceed capacity after long idle", func() {
		_, err := s.store.Take(s.ctx, "key:idle", testCapacity, testRate, 1)
		s.Require().NoError(err)

		s.advance(time.Hour)

		result, err := s.store.Take(s.ctx, "key:idle", testCapacity, testRate, 1)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.InDelta(testCapacity-1, result.Remaining, 1e-9)
	})

	s.Run("tokens never go negative", func() {
		for range 20 {
			result, err := s.store.Take(s.ctx, "key:negative", testCapacity, testRate, 1)
			s.Require().NoError(err)
			s.GreaterOrEqual(result.Remaining, 0.0)
		}
	})

	s.Run("lazy refill restores tokens", func() {
		for range int(testCapacity) {
			_, err := s.store.Take(s.ctx, "key:refill", testCapacity, testRate, 1)
			s.Require().NoError(err)
		}
		denied, err := s.store.Take(s.ctx, "key:refill", testCapacity, testRate, 1)
		s.Require().NoError(err)
		s.False(denied.Allowed)

		// 2 tokens/s for 3 seconds refills 6 tokens.
		s.advance(3 * time.Second)
		result, err := s.store.Take(s.ctx, "key:refill", testCapacity, testRate, 1)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.InDelta(5.0, result.Remaining, 1e-9)
	})

	s.Run("capacity shrink clamps stored tokens", func() {
		_, err := s.store.Take(s.ctx, "key:shrink", testCapacity, testRate, 1)
		s.Require().NoError(err)

		result, err := s.store.Take(s.ctx, "key:shrink", 3, testRate, 1)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.LessOrEqual(result.Remaining, 3.0)
	})

	s.Run("multi-token cost", func() {
		result, err := s.store.Take(s.ctx, "key:cost", testCapacity, testRate, 4)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.InDelta(testCapacity-4, result.Remaining, 1e-9)
	})
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range int(testCapacity) {
		_, err := s.store.Take(s.ctx, "key:reset", testCapacity, testRate, 1)
		s.Require().NoError(err)
	}

	err := s.store.Reset(s.ctx, "key:reset")
	s.Require().NoError(err)

	result, err := s.store.Take(s.ctx, "key:reset", testCapacity, testRate, 1)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.InDelta(testCapacity-1, result.Remaining, 1e-9)
}

// Two concurrent requests must never both spend the same final token: the
// accounting is strictly sequential per key.
func (s *InMemoryBucketStoreSuite) TestConcurrent() {
	capacity := 100.0
	key := "key:concurrent"
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for range 200 {
		wg.Go(func() {
			result, err := s.store.Take(s.ctx, key, capacity, 0, 1)
			s.Require().NoError(err)
			if result.Allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	s.Equal(int(capacity), allowedCount)
}

func (s *InMemoryBucketStoreSuite) TestSize() {
	_, err := s.store.Take(s.ctx, "key:a", testCapacity, testRate, 1)
	s.Require().NoError(err)
	_, err = s.store.Take(s.ctx, "key:b", testCapacity, testRate, 1)
	s.Require().NoError(err)

	size, err := s.store.Size(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, size)
}
