package service

import (
	"context"
	"errors"
	"log/slog"

	"nexus/internal/ratelimit/metrics"
	"nexus/internal/ratelimit/models"
	dErrors "nexus/pkg/domain-errors"
)

// BucketStore manages token bucket counters keyed by client.
type BucketStore interface {
	// Take refills the bucket and attempts to consume cost tokens.
	Take(ctx context.Context, key string, capacity, refillRate, cost float64) (*models.RateLimitResult, error)

	// Reset clears the bucket for a key.
	Reset(ctx context.Context, key string) error

	// Size returns the number of tracked buckets.
	Size(ctx context.Context) (int, error)
}

// Service is the token bucket admission service. It owns the tier table and
// delegates accounting to the store.
type Service struct {
	buckets BucketStore
	tiers   map[models.Tier]models.TierLimits
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTierLimits overrides the default tier table.
func WithTierLimits(tiers map[models.Tier]models.TierLimits) Option {
	return func(s *Service) {
		s.tiers = tiers
	}
}

func New(buckets BucketStore, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("bucket store is required")
	}

	svc := &Service{
		buckets: buckets,
		tiers:   models.DefaultTierLimits(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Allow checks whether clientKey may spend cost tokens under its tier.
// Unknown tiers fall back to the most restrictive tier. Denial never blocks.
func (s *Service) Allow(ctx context.Context, clientKey string, tier models.Tier, cost float64) (*models.RateLimitResult, error) {
	if clientKey == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "client key cannot be empty")
	}
	if cost <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "token cost must be positive")
	}

	limits, ok := s.tiers[tier]
	if !ok {
		limits = s.tiers[models.TierFree]
	}

	key := models.SanitizeKeySegment(clientKey)
	result, err := s.buckets.Take(ctx, key, limits.Capacity, limits.RefillRate, cost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	if result.Allowed {
		if s.metrics != nil {
			s.metrics.RecordAllowed(string(tier))
		}
		return result, nil
	}

	if s.metrics != nil {
		s.metrics.RecordDenied(string(tier))
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "rate limit exceeded",
			"client_key", key,
			"tier", tier,
			"retry_after_seconds", result.RetryAfter,
			"log_type", "audit",
		)
	}
	return result, nil
}

// Reset clears the bucket for a client (admin recovery).
func (s *Service) Reset(ctx context.Context, clientKey string) error {
	return s.buckets.Reset(ctx, models.SanitizeKeySegment(clientKey))
}

// Stats reports limiter occupancy for the stats endpoint.
func (s *Service) Stats(ctx context.Context) (map[string]any, error) {
	size, err := s.buckets.Size(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"tracked_clients": size,
		"tiers":           s.tiers,
	}, nil
}
