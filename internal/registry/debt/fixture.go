package debt

import (
	"context"
	"log/slog"

	"nexus/internal/registry/models"
)

// fixtureIdentifier mirrors the demo identifier of the registry fixture
// adapter; the demo company carries a large VAT debt so the debt-escalation
// path is exercised end to end.
const fixtureIdentifier = "88888888"

// FixtureLookup serves canned debt data for the demo identifier and
// delegates everything else. Only mounted in demo mode.
type FixtureLookup struct {
	delegate Lookup
	logger   *slog.Logger
}

func NewFixture(delegate Lookup, logger *slog.Logger) *FixtureLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &FixtureLookup{delegate: delegate, logger: logger}
}

func (f *FixtureLookup) Lookup(ctx context.Context, identifier, country string) (*models.DebtInfo, error) {
	if identifier != fixtureIdentifier {
		return f.delegate.Lookup(ctx, identifier, country)
	}
	f.logger.InfoContext(ctx, "serving demo fixture debt record", "identifier", identifier)

	info := &models.DebtInfo{
		HasDebt:   true,
		TotalDebt: 125000,
		DebtCount: 1,
		DebtType:  "DPH",
	}
	info.RiskScore = Score(*info)
	return info, nil
}
