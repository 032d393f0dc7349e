// Package adapters connects the pipeline to the national company registries.
// Each adapter translates one upstream API into the normalized RawRecord
// shape; callers guard every Fetch with the circuit breaker for the
// adapter's name.
package adapters

import (
	"context"

	"nexus/internal/registry/models"
)

// Registry extracts carry the full executive board; only the first few
// matter for the ownership graph.
const maxExecutives = 3

// capExecutives bounds the executive list carried on a normalized record.
func capExecutives(parties []models.Party) []models.Party {
	if len(parties) > maxExecutives {
		return parties[:maxExecutives]
	}
	return parties
}

// Adapter is the contract every national registry integration implements.
type Adapter interface {
	// Name is the upstream identity used for circuit breaking and logging,
	// e.g. "sk_rpo".
	Name() string

	// Country is the lowercase ISO code the adapter serves.
	Country() string

	// Fetch retrieves the company record for the identifier. Failures are
	// reported as *FetchError so callers can distinguish a clean NotFound
	// from upstream faults.
	Fetch(ctx context.Context, identifier string) (*models.RawRecord, error)
}
