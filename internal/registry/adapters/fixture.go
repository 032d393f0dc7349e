package adapters

import (
	"context"
	"log/slog"

	"nexus/internal/registry/models"
)

// FixtureIdentifier triggers the demo record when demo mode is on.
const FixtureIdentifier = "88888888"

// FixtureAdapter serves a canned ownership structure for the demo
// identifier and delegates everything else to the wrapped adapter. It exists
// so demo data stays an explicit, separately wired concern instead of a
// magic branch inside production fetch logic; it is only mounted when demo
// mode is enabled.
type FixtureAdapter struct {
	delegate Adapter
	logger   *slog.Logger
}

func NewFixture(delegate Adapter, logger *slog.Logger) *FixtureAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FixtureAdapter{delegate: delegate, logger: logger}
}

func (a *FixtureAdapter) Name() string    { return a.delegate.Name() }
func (a *FixtureAdapter) Country() string { return a.delegate.Country() }

func (a *FixtureAdapter) Fetch(ctx context.Context, identifier string) (*models.RawRecord, error) {
	if identifier != FixtureIdentifier {
		return a.delegate.Fetch(ctx, identifier)
	}
	a.logger.InfoContext(ctx, "serving demo fixture record", "identifier", identifier)
	return FixtureRecord(), nil
}

// FixtureRecord is a two-company structure with a manager shared across both
// companies, built to exercise the whole graph path: subsidiaries, owners,
// person deduplication and addresses.
func FixtureRecord() *models.RawRecord {
	sharedManager := models.Party{
		ID:   "person_sk_shared_manager",
		Name: "Mária Kováčová",
		Role: "konateľka",
	}

	return &models.RawRecord{
		Identifier: FixtureIdentifier,
		Country:    "sk",
		Name:       "Testovacia Spoločnosť s.r.o.",
		Status:     "active",
		LegalForm:  "s.r.o.",
		Address:    "Bratislava, Hlavná 1",
		Executives: []models.Party{
			{Name: "Ján Novák", Role: "konateľ"},
			sharedManager,
		},
		Owners: []models.Party{
			{Name: "Peter Horváth", Role: "spoločník"},
		},
		Subsidiaries: []models.RawRecord{{
			Identifier: "77777777",
			Country:    "sk",
			Name:       "Sesterská Spoločnosť s.r.o.",
			Status:     "active",
			LegalForm:  "s.r.o.",
			Address:    "Košice, Mierová 5",
			Executives: []models.Party{sharedManager},
			Owners: []models.Party{
				{Name: "Ladislav Biely", Role: "spoločník"},
			},
		}},
	}
}
