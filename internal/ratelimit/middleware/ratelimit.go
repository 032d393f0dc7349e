package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	platformmw "nexus/internal/platform/middleware"
	"nexus/internal/ratelimit/models"
)

// Limiter is the admission contract the middleware depends on.
type Limiter interface {
	Allow(ctx context.Context, clientKey string, tier models.Tier, cost float64) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit admits requests against the caller's token bucket. The client key
// is the API key when present, otherwise the client IP; the tier comes from
// the X-Nexus-Tier header set by the auth layer upstream of this service.
func (m *Middleware) RateLimit(cost float64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			clientKey := r.Header.Get("X-API-Key")
			if clientKey == "" {
				clientKey = platformmw.ClientIP(r)
			}
			tier := models.ParseTier(r.Header.Get("X-Nexus-Tier"))

			result, err := m.limiter.Allow(ctx, clientKey, tier, cost)
			if err != nil {
				// Fail open: a broken limiter must not take down search.
				m.logger.Error("failed to check rate limit", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(result.Remaining)))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter))))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(&models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
		Remaining:  result.Remaining,
	})
}
