// Package history records completed searches for the audit endpoint. The
// memory store backs tests and single-node deployments; the Postgres store
// is used when a DSN is configured.
package history

import "time"

// Record is one completed search.
type Record struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Country      string    `json:"country"`
	NodeCount    int       `json:"node_count"`
	EdgeCount    int       `json:"edge_count"`
	MaxRiskScore float64   `json:"max_risk_score"`
	CacheHit     bool      `json:"cache_hit"`
	Degraded     bool      `json:"degraded"`
	DurationMS   float64   `json:"duration_ms"`
	UserIP       string    `json:"user_ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats summarizes the history backend for the database stats endpoint.
type Stats struct {
	Backend string `json:"backend"`
	Records int    `json:"records"`
}
