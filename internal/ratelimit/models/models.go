package models

import (
	"strings"
	"time"
)

// Tier selects the token bucket sizing for a client.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// IsValid checks if the tier is one of the supported enum values.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPro, TierEnterprise:
		return true
	}
	return false
}

// ParseTier maps a raw tier string to a Tier, defaulting unknown values to
// the most restrictive tier rather than rejecting the request.
func ParseTier(s string) Tier {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return TierFree
	}
	return t
}

// TierLimits describes one tier's bucket: maximum burst capacity and the
// continuous refill rate in tokens per second.
type TierLimits struct {
	Capacity   float64
	RefillRate float64
}

// DefaultTierLimits returns the production tier table.
// free: 10 burst, 10/min sustained. pro: 60 burst, 1/s. enterprise: 300 burst, 5/s.
func DefaultTierLimits() map[Tier]TierLimits {
	return map[Tier]TierLimits{
		TierFree:       {Capacity: 10, RefillRate: 10.0 / 60.0},
		TierPro:        {Capacity: 60, RefillRate: 1},
		TierEnterprise: {Capacity: 300, RefillRate: 5},
	}
}

// RateLimitResult represents the outcome of an admission check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Remaining  float64   `json:"remaining"`
	RetryAfter float64   `json:"retry_after_seconds,omitempty"` // seconds, only set when denied
	CheckedAt  time.Time `json:"checked_at"`
}

// RateLimitExceededResponse is the JSON body returned with HTTP 429.
type RateLimitExceededResponse struct {
	Error      string  `json:"error"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after_seconds"`
	Remaining  float64 `json:"remaining"`
}

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers
// containing ':' could manipulate adjacent buckets.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
