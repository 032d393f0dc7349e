// Package models defines the normalized record shape every national registry
// adapter produces. Adapters translate their upstream's payload into a
// RawRecord; everything downstream (graph building, risk analysis) is
// country-agnostic.
package models

// Party is a person related to a company, either as an executive or an owner.
// ID is optional: adapters set it when the upstream exposes a stable person
// identifier, which lets the same person deduplicate across companies.
type Party struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// RawRecord is a company record as returned by a registry adapter, before
// graph normalization. Fields the upstream did not provide are left empty;
// the graph builder substitutes explicit placeholders.
type RawRecord struct {
	Identifier   string      `json:"identifier"`
	Country      string      `json:"country"`
	Name         string      `json:"name"`
	Status       string      `json:"status,omitempty"`
	LegalForm    string      `json:"legal_form,omitempty"`
	Address      string      `json:"address,omitempty"`
	VirtualSeat  bool        `json:"virtual_seat,omitempty"`
	Executives   []Party     `json:"executives,omitempty"`
	Owners       []Party     `json:"owners,omitempty"`
	Subsidiaries []RawRecord `json:"subsidiaries,omitempty"`
}

// DebtInfo is the outcome of a debt-register lookup for one company.
type DebtInfo struct {
	HasDebt   bool    `json:"has_debt"`
	TotalDebt float64 `json:"total_debt"`
	DebtCount int     `json:"debt_count"`
	DebtType  string  `json:"debt_type,omitempty"`
	RiskScore float64 `json:"risk_score"`
}
