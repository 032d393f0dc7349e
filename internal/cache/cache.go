// Package cache implements the two-tier result cache for resolved company
// graphs. The shared tier (Redis) is consulted first so every process in the
// fleet sees writes from its peers; hits populate the in-process tier to save
// the network hop on repeat reads. The shared tier is an optimization, never
// a dependency: when it is unreachable the cache degrades to local-only and
// keeps serving.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"nexus/pkg/platform/sentinel"
)

const (
	tierLocal  = "local"
	tierShared = "shared"
)

// LocalStore is the in-process tier contract.
type LocalStore interface {
	Get(key string) ([]byte, bool)
	Set(key string, payload []byte, ttl time.Duration)
	Delete(key string)
	Len() int
}

// SharedStore is the network-backed tier contract. Implementations return
// sentinel.ErrNotFound for a clean miss; any other error means the tier is
// unreachable and the layered cache degrades around it.
type SharedStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Health(ctx context.Context) (time.Duration, error)
}

// Stats is the read-only view served by the cache stats endpoint.
type Stats struct {
	LocalItems    int      `json:"local_items"`
	Hits          uint64   `json:"hits"`
	Misses        uint64   `json:"misses"`
	SharedEnabled bool     `json:"shared_enabled"`
	SharedHealthy *bool    `json:"shared_healthy,omitempty"`
	SharedLatency *float64 `json:"shared_latency_ms,omitempty"`
}

// Layered combines the local and (optional) shared tiers.
type Layered struct {
	local      LocalStore
	shared     SharedStore
	defaultTTL time.Duration
	logger     *slog.Logger
	metrics    *Metrics

	hits   atomic.Uint64
	misses atomic.Uint64
}

type LayeredOption func(*Layered)

// WithSharedStore enables the shared tier. A nil store leaves the cache
// local-only.
func WithSharedStore(shared SharedStore) LayeredOption {
	return func(l *Layered) {
		l.shared = shared
	}
}

func WithDefaultTTL(ttl time.Duration) LayeredOption {
	return func(l *Layered) {
		l.defaultTTL = ttl
	}
}

func WithLogger(logger *slog.Logger) LayeredOption {
	return func(l *Layered) {
		l.logger = logger
	}
}

func WithMetrics(m *Metrics) LayeredOption {
	return func(l *Layered) {
		l.metrics = m
	}
}

func NewLayered(local LocalStore, opts ...LayeredOption) (*Layered, error) {
	if local == nil {
		return nil, fmt.Errorf("local store is required")
	}

	l := &Layered{
		local:      local,
		defaultTTL: 24 * time.Hour,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Get looks the key up shared-tier first, then locally. A shared-tier hit
// refreshes the local tier with the default TTL so subsequent reads in this
// process stay off the network.
func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool) {
	if l.shared != nil {
		payload, err := l.shared.Get(ctx, key)
		switch {
		case err == nil:
			l.local.Set(key, payload, l.defaultTTL)
			l.recordHit(tierShared)
			return payload, true
		case errors.Is(err, sentinel.ErrNotFound):
			// clean miss, fall through to the local tier
		default:
			l.degraded(ctx, "get", err)
		}
	}

	if payload, ok := l.local.Get(key); ok {
		l.recordHit(tierLocal)
		return payload, true
	}

	l.misses.Add(1)
	if l.metrics != nil {
		l.metrics.RecordMiss()
	}
	return nil, false
}

// Set writes through to both tiers. A shared-tier failure is absorbed; the
// local write always sticks.
func (l *Layered) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	l.local.Set(key, payload, ttl)

	if l.shared != nil {
		if err := l.shared.Set(ctx, key, payload, ttl); err != nil {
			l.degraded(ctx, "set", err)
		}
	}
}

// Delete removes the key from both tiers.
func (l *Layered) Delete(ctx context.Context, key string) {
	l.local.Delete(key)

	if l.shared != nil {
		if err := l.shared.Delete(ctx, key); err != nil {
			l.degraded(ctx, "delete", err)
		}
	}
}

// Stats reports item counts, hit/miss counters and shared-tier health.
func (l *Layered) Stats(ctx context.Context) Stats {
	stats := Stats{
		LocalItems:    l.local.Len(),
		Hits:          l.hits.Load(),
		Misses:        l.misses.Load(),
		SharedEnabled: l.shared != nil,
	}
	if l.shared != nil {
		healthy := true
		latency, err := l.shared.Health(ctx)
		if err != nil {
			healthy = false
		}
		stats.SharedHealthy = &healthy
		if err == nil {
			ms := float64(latency.Microseconds()) / 1000
			stats.SharedLatency = &ms
		}
	}
	return stats
}

func (l *Layered) recordHit(tier string) {
	l.hits.Add(1)
	if l.metrics != nil {
		l.metrics.RecordHit(tier)
	}
}

func (l *Layered) degraded(ctx context.Context, op string, err error) {
	if l.metrics != nil {
		l.metrics.RecordSharedTierError()
	}
	l.logger.WarnContext(ctx, "shared cache tier unavailable, serving local-only",
		"operation", op,
		"error", err,
	)
}
