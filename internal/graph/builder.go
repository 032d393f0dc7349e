package graph

import (
	"fmt"
	"strconv"
	"strings"

	"nexus/internal/registry/models"
)

// notProvided is the explicit placeholder for fields an upstream omitted.
// Downstream risk logic relies on every field being present.
const notProvided = "not provided"

// addressLabelMax caps the display label of address nodes; the full text is
// kept in the node attributes.
const addressLabelMax = 30

// Normalize turns a registry record into a graph fragment: the company node,
// its address, executive and owner persons, and subsidiaries (recursively).
// It is total: a partially populated record yields placeholder values, never
// an error. The returned id names the root company node, which is keyed by
// the record's canonical identifier and may differ from the query that
// located the record.
func Normalize(rec models.RawRecord) (*Graph, string) {
	g := New()
	rootID := normalizeInto(g, rec)
	return g, rootID
}

func normalizeInto(g *Graph, rec models.RawRecord) string {
	companyID := CompanyNodeID(rec.Country, rec.Identifier)

	company := g.AddNode(&Node{
		ID:    companyID,
		Kind:  KindCompany,
		Label: orPlaceholder(rec.Name),
	})
	company.SetAttribute("identifier", orPlaceholder(rec.Identifier))
	company.SetAttribute("country", orPlaceholder(strings.ToLower(rec.Country)))
	company.SetAttribute("status", orPlaceholder(rec.Status))
	company.SetAttribute("legal_form", orPlaceholder(rec.LegalForm))
	if rec.VirtualSeat {
		company.SetAttribute("virtual_seat", "true")
	}

	if rec.Address != "" {
		addressID := fmt.Sprintf("address_%s", companyID)
		address := g.AddNode(&Node{
			ID:    addressID,
			Kind:  KindAddress,
			Label: truncateLabel(rec.Address),
		})
		address.SetAttribute("full_address", rec.Address)
		if rec.VirtualSeat {
			address.SetAttribute("virtual_seat", "true")
		}
		g.AddEdge(Edge{Source: companyID, Target: addressID, Kind: EdgeLocatedAt})
	}

	for i, exec := range rec.Executives {
		personID := partyNodeID(exec, companyID, "person", i+1)
		addPartyNode(g, personID, exec)
		g.AddEdge(Edge{Source: companyID, Target: personID, Kind: EdgeManagedBy})
	}

	// Owner offsets continue after executives so generated ids stay unique
	// within the company.
	for i, owner := range rec.Owners {
		personID := partyNodeID(owner, companyID, "person", len(rec.Executives)+i+1)
		addPartyNode(g, personID, owner)
		g.AddEdge(Edge{Source: companyID, Target: personID, Kind: EdgeOwnedBy})
	}

	for _, sub := range rec.Subsidiaries {
		subID := normalizeInto(g, sub)
		g.AddEdge(Edge{Source: companyID, Target: subID, Kind: EdgeOwnedBy})
	}

	return companyID
}

// AttachDebt synthesizes a debt node linked to the company when the debt
// lookup reported an outstanding balance. A lookup with no debt is a no-op.
func AttachDebt(g *Graph, companyID, identifier string, debt models.DebtInfo) {
	if !debt.HasDebt {
		return
	}

	debtID := fmt.Sprintf("debt_%s", strings.TrimSpace(identifier))
	node := g.AddNode(&Node{
		ID:        debtID,
		Kind:      KindDebt,
		Label:     fmt.Sprintf("Outstanding debt %.2f", debt.TotalDebt),
		RiskScore: debt.RiskScore,
	})
	node.SetAttribute("total_debt", strconv.FormatFloat(debt.TotalDebt, 'f', 2, 64))
	node.SetAttribute("debt_count", strconv.Itoa(debt.DebtCount))
	if debt.DebtType != "" {
		node.SetAttribute("debt_type", debt.DebtType)
	}

	g.AddEdge(Edge{Source: companyID, Target: debtID, Kind: EdgeHasDebt})
}

// Minimal builds the single-node fallback graph served when every upstream
// path for the identifier failed.
func Minimal(country, identifier string) *Graph {
	g := New()
	node := g.AddNode(&Node{
		ID:    CompanyNodeID(country, identifier),
		Kind:  KindCompany,
		Label: fmt.Sprintf("Company %s", strings.TrimSpace(identifier)),
	})
	node.SetAttribute("identifier", orPlaceholder(identifier))
	node.SetAttribute("country", orPlaceholder(strings.ToLower(country)))
	node.SetAttribute("status", notProvided)
	node.SetAttribute("legal_form", notProvided)
	return g
}

func addPartyNode(g *Graph, id string, party models.Party) {
	node := g.AddNode(&Node{
		ID:    id,
		Kind:  KindPerson,
		Label: orPlaceholder(party.Name),
	})
	if party.Role != "" {
		node.SetAttribute("role", party.Role)
	}
	if party.Detail != "" {
		node.SetAttribute("detail", party.Detail)
	}
}

// partyNodeID prefers the upstream's stable person id so the same person
// deduplicates across companies; otherwise the id is derived from the parent
// company and position.
func partyNodeID(party models.Party, parentID, kind string, n int) string {
	if party.ID != "" {
		return party.ID
	}
	return fmt.Sprintf("%s_%s_%d", kind, parentID, n)
}

func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= addressLabelMax {
		return s
	}
	return string(runes[:addressLabelMax]) + "..."
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}
