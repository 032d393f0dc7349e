package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches, and registry
// clients return these (optionally wrapped) so services can translate them
// into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the upstream registry or store
// - ErrExpired: cache entry exists but its TTL has elapsed
// - ErrUnavailable: upstream or shared store temporarily unreachable
// - ErrTimeout: upstream call exceeded its deadline
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
	ErrTimeout     = errors.New("timeout")
)
