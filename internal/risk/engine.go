// Package risk scores ownership graphs for fraud indicators. Each detector
// proposes per-node risk floors independently; the engine combines proposals
// with a monotone max reducer, so scores only ever rise and detector order
// cannot change the result.
package risk

import (
	"context"
	"log/slog"

	"nexus/internal/graph"
)

const maxRiskScore = 10

// Summary is the graph-level outcome of one analysis run.
type Summary struct {
	WhiteHorseCount        int     `json:"white_horse_count"`
	CircularStructureCount int     `json:"circular_structure_count"`
	MaxRiskScore           float64 `json:"max_risk_score"`
}

type Engine struct {
	thresholds Thresholds
	detectors  []Detector
	logger     *slog.Logger
}

type Option func(*Engine)

func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDetectors replaces the default detector set.
func WithDetectors(detectors ...Detector) Option {
	return func(e *Engine) {
		e.detectors = detectors
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		thresholds: DefaultThresholds(),
		detectors: []Detector{
			DetectWhiteHorses,
			DetectCircularOwnership,
			DetectDebtEscalation,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs all detectors over the graph, applies the combined floors to
// the node scores in place, and returns the summary. Node scores are clamped
// to [0, 10].
func (e *Engine) Analyze(ctx context.Context, g *graph.Graph) Summary {
	var summary Summary
	if g == nil {
		return summary
	}

	floors := make(map[string]float64)
	for _, detect := range e.detectors {
		ann := detect(g, e.thresholds)
		summary.WhiteHorseCount += ann.WhiteHorseCount
		summary.CircularStructureCount += ann.CircularStructureCnt
		for nodeID, floor := range ann.Floors {
			if floor > floors[nodeID] {
				floors[nodeID] = floor
			}
		}
	}

	for _, node := range g.Nodes {
		if floor, ok := floors[node.ID]; ok && floor > node.RiskScore {
			node.RiskScore = floor
		}
		if node.RiskScore > maxRiskScore {
			node.RiskScore = maxRiskScore
		}
		if node.RiskScore < 0 {
			node.RiskScore = 0
		}
		if node.Kind == graph.KindCompany && node.RiskScore > summary.MaxRiskScore {
			summary.MaxRiskScore = node.RiskScore
		}
	}

	if summary.WhiteHorseCount > 0 || summary.CircularStructureCount > 0 {
		e.logger.InfoContext(ctx, "risk structures detected",
			"white_horses", summary.WhiteHorseCount,
			"circular_structures", summary.CircularStructureCount,
			"max_risk_score", summary.MaxRiskScore,
		)
	}
	return summary
}
