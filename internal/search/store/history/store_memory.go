package history

import (
	"context"
	"sync"
)

// maxMemoryRecords bounds the in-memory history so long-running processes
// don't grow without limit.
const maxMemoryRecords = 1000

// InMemoryStore keeps recent searches in a bounded slice, newest first.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Insert(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]Record{record}, s.records...)
	if len(s.records) > maxMemoryRecords {
		s.records = s.records[:maxMemoryRecords]
	}
	return nil
}

// List returns up to limit records, newest first, optionally filtered by
// country.
func (s *InMemoryStore) List(_ context.Context, limit int, country string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, limit)
	for _, record := range s.records {
		if country != "" && record.Country != country {
			continue
		}
		out = append(out, record)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Backend: "memory", Records: len(s.records)}, nil
}
