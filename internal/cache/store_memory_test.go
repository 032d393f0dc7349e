package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewMemoryStore(WithClock(func() time.Time { return s.now }))
}

func (s *MemoryStoreSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *MemoryStoreSuite) TestGetAfterSet() {
	s.store.Set("k", []byte("v"), time.Minute)

	payload, ok := s.store.Get("k")
	s.True(ok)
	s.Equal([]byte("v"), payload)
}

func (s *MemoryStoreSuite) TestMissOnUnknownKey() {
	_, ok := s.store.Get("absent")
	s.False(ok)
}

func (s *MemoryStoreSuite) TestExpiryIsLazy() {
	s.store.Set("k", []byte("v"), 60*time.Second)

	s.advance(59 * time.Second)
	_, ok := s.store.Get("k")
	s.True(ok)

	s.advance(2 * time.Second)
	_, ok = s.store.Get("k")
	s.False(ok)

	// The expired read evicted the entry.
	s.Equal(0, s.store.Len())
}

func (s *MemoryStoreSuite) TestSetRefreshesTTL() {
	s.store.Set("k", []byte("v1"), time.Minute)
	s.advance(50 * time.Second)
	s.store.Set("k", []byte("v2"), time.Minute)
	s.advance(30 * time.Second)

	payload, ok := s.store.Get("k")
	s.True(ok)
	s.Equal([]byte("v2"), payload)
}

func (s *MemoryStoreSuite) TestDelete() {
	s.store.Set("k", []byte("v"), time.Minute)
	s.store.Delete("k")

	_, ok := s.store.Get("k")
	s.False(ok)
}

func (s *MemoryStoreSuite) TestSweepRemovesOnlyExpired() {
	s.store.Set("old", []byte("1"), time.Minute)
	s.store.Set("fresh", []byte("2"), time.Hour)

	s.advance(2 * time.Minute)
	removed := s.store.sweep()

	s.Equal(1, removed)
	s.Equal(1, s.store.Len())
	_, ok := s.store.Get("fresh")
	s.True(ok)
}
