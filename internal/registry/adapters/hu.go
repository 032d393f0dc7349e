package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"nexus/internal/registry/models"
)

const navDefaultBaseURL = "https://api.nav.gov.hu/companyData/v1"

// NAVAdapter queries the Hungarian tax authority's company data service.
type NAVAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type navCompanyResponse struct {
	TaxNumber  string `json:"taxNumber"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Status     string `json:"status"`
	LegalForm  string `json:"legalForm"`
	Executives []struct {
		Name     string `json:"name"`
		Position string `json:"position"`
	} `json:"executives"`
}

func NewNAV(opts ...Option) *NAVAdapter {
	o := newOptions(navDefaultBaseURL, opts...)
	return &NAVAdapter{baseURL: o.baseURL, client: o.client, logger: o.logger}
}

func (a *NAVAdapter) Name() string    { return "hu_nav" }
func (a *NAVAdapter) Country() string { return "hu" }

func (a *NAVAdapter) Fetch(ctx context.Context, identifier string) (*models.RawRecord, error) {
	var response navCompanyResponse
	endpoint := a.baseURL + "/companies/" + url.PathEscape(identifier)
	if err := fetchJSON(ctx, a.client, a.Name(), http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if response.Name == "" {
		return nil, NewFetchError(FetchNotFound, a.Name(), "no record for identifier", nil)
	}
	a.logger.DebugContext(ctx, "nav record fetched", "tax_number", response.TaxNumber)

	record := &models.RawRecord{
		Identifier: identifier,
		Country:    a.Country(),
		Name:       response.Name,
		Status:     response.Status,
		LegalForm:  response.LegalForm,
		Address:    response.Address,
	}
	for _, exec := range response.Executives {
		record.Executives = append(record.Executives, models.Party{Name: exec.Name, Role: exec.Position})
	}
	record.Executives = capExecutives(record.Executives)
	return record, nil
}
