// Package analytics emits one event per completed search so usage and risk
// trends can be analyzed off the hot path. Publishing is fire-and-forget:
// an analytics outage must never slow down or fail a search.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event describes one completed search.
type Event struct {
	ID                 string    `json:"id"`
	Query              string    `json:"query"`
	Country            string    `json:"country"`
	CacheHit           bool      `json:"cache_hit"`
	Degraded           bool      `json:"degraded"`
	NodeCount          int       `json:"node_count"`
	WhiteHorses        int       `json:"white_horses"`
	CircularStructures int       `json:"circular_structures"`
	MaxRiskScore       float64   `json:"max_risk_score"`
	DurationMS         float64   `json:"duration_ms"`
	UserIP             string    `json:"user_ip,omitempty"`
	UserAgent          string    `json:"user_agent,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewEvent stamps identity and time onto an event skeleton.
func NewEvent(event Event) Event {
	event.ID = uuid.NewString()
	event.OccurredAt = time.Now().UTC()
	return event
}

// Publisher delivers events to the analytics backend.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}
