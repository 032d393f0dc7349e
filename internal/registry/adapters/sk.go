package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"nexus/internal/registry/models"
)

const rpoDefaultBaseURL = "https://api.statistics.sk/rpo/v1"

// RPOAdapter queries the Slovak Register právnických osôb.
type RPOAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type rpoSearchResponse struct {
	Results []struct {
		Identifier       string `json:"identifier"`
		FullName         string `json:"fullName"`
		FormattedAddress string `json:"formattedAddress"`
		LegalForm        string `json:"legalForm"`
		Status           string `json:"status"`
		StatutoryBodies  []struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"statutoryBodies"`
		Stakeholders []struct {
			Name  string `json:"name"`
			Share string `json:"share"`
		} `json:"stakeholders"`
	} `json:"results"`
}

func NewRPO(opts ...Option) *RPOAdapter {
	o := newOptions(rpoDefaultBaseURL, opts...)
	return &RPOAdapter{baseURL: o.baseURL, client: o.client, logger: o.logger}
}

func (a *RPOAdapter) Name() string    { return "sk_rpo" }
func (a *RPOAdapter) Country() string { return "sk" }

func (a *RPOAdapter) Fetch(ctx context.Context, identifier string) (*models.RawRecord, error) {
	var response rpoSearchResponse
	endpoint := a.baseURL + "/search?identifier=" + url.QueryEscape(identifier)
	if err := fetchJSON(ctx, a.client, a.Name(), http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if len(response.Results) == 0 {
		return nil, NewFetchError(FetchNotFound, a.Name(), "no record for identifier", nil)
	}

	entity := response.Results[0]
	a.logger.DebugContext(ctx, "rpo record fetched", "ico", entity.Identifier)

	record := &models.RawRecord{
		Identifier: entity.Identifier,
		Country:    a.Country(),
		Name:       entity.FullName,
		Status:     entity.Status,
		LegalForm:  entity.LegalForm,
		Address:    entity.FormattedAddress,
	}
	for _, body := range entity.StatutoryBodies {
		record.Executives = append(record.Executives, models.Party{Name: body.Name, Role: body.Role})
	}
	record.Executives = capExecutives(record.Executives)
	for _, stakeholder := range entity.Stakeholders {
		record.Owners = append(record.Owners, models.Party{
			Name:   stakeholder.Name,
			Role:   "spoločník",
			Detail: stakeholder.Share,
		})
	}
	return record, nil
}
