package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	"nexus/internal/ratelimit/models"
)

// InMemoryBucketStore implements token bucket accounting with per-key state.
// Buckets refill lazily on each call; there is no background timer. Each key
// carries its own mutex so unrelated clients never contend on a global lock,
// while two concurrent requests for the same key are strictly serialized and
// can never both spend the same final token.
type InMemoryBucketStore struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
	now     func() time.Time
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

type Option func(*InMemoryBucketStore)

// WithClock overrides the time source. Tests use this to simulate refill
// intervals without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryBucketStore) {
		s.now = now
	}
}

// NewInMemoryBucketStore creates a new in-memory token bucket store.
func NewInMemoryBucketStore(opts ...Option) *InMemoryBucketStore {
	s := &InMemoryBucketStore{
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take refills the bucket for key based on elapsed time, then attempts to
// consume cost tokens. Denial is immediate and reports how long the caller
// must wait for the deficit to refill.
func (s *InMemoryBucketStore) Take(ctx context.Context, key string, capacity, refillRate, cost float64) (*models.RateLimitResult, error) {
	b := s.getOrCreateBucket(key, capacity)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := s.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(capacity, b.tokens+elapsed*refillRate)
	}
	// Tier downgrades shrink capacity; clamp so tokens never exceed it.
	b.tokens = math.Min(b.tokens, capacity)
	b.lastRefill = now

	if b.tokens >= cost {
		b.tokens -= cost
		return &models.RateLimitResult{
			Allowed:   true,
			Remaining: b.tokens,
			CheckedAt: now,
		}, nil
	}

	retryAfter := 0.0
	if refillRate > 0 {
		retryAfter = (cost - b.tokens) / refillRate
	}
	return &models.RateLimitResult{
		Allowed:    false,
		Remaining:  b.tokens,
		RetryAfter: retryAfter,
		CheckedAt:  now,
	}, nil
}

// Reset clears bucket state for a key.
func (s *InMemoryBucketStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// Size returns the number of tracked buckets.
func (s *InMemoryBucketStore) Size(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets), nil
}

// getOrCreateBucket returns an existing bucket or creates a full one.
func (s *InMemoryBucketStore) getOrCreateBucket(key string, capacity float64) *tokenBucket {
	s.mu.RLock()
	b := s.buckets[key]
	s.mu.RUnlock()
	if b != nil {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b = s.buckets[key]; b != nil {
		return b
	}
	b = &tokenBucket{tokens: capacity, lastRefill: s.now()}
	s.buckets[key] = b
	return b
}
