package adapters

import (
	"context"
	"log/slog"
	"net/http"

	"nexus/internal/registry/models"
)

const aresDefaultBaseURL = "https://ares.gov.cz/ekonomicke-subjekty-v-be/rest"

// ARESAdapter queries the Czech ARES registry. ARES is also the fallback for
// free-text queries, so it searches rather than fetching by exact id.
type ARESAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type aresSearchRequest struct {
	Obchodnijmeno string   `json:"obchodniJmeno,omitempty"`
	ICO           []string `json:"ico,omitempty"`
	Start         int      `json:"start"`
	Pocet         int      `json:"pocet"`
}

type aresSearchResponse struct {
	EkonomickeSubjekty []struct {
		ICO           string `json:"ico"`
		ObchodniJmeno string `json:"obchodniJmeno"`
		PravniForma   string `json:"pravniForma"`
		StavSubjektu  string `json:"stavSubjektu"`
		Sidlo         struct {
			TextovaAdresa string `json:"textovaAdresa"`
		} `json:"sidlo"`
	} `json:"ekonomickeSubjekty"`
}

func NewARES(opts ...Option) *ARESAdapter {
	o := newOptions(aresDefaultBaseURL, opts...)
	return &ARESAdapter{baseURL: o.baseURL, client: o.client, logger: o.logger}
}

func (a *ARESAdapter) Name() string    { return "cz_ares" }
func (a *ARESAdapter) Country() string { return "cz" }

func (a *ARESAdapter) Fetch(ctx context.Context, identifier string) (*models.RawRecord, error) {
	request := aresSearchRequest{Start: 0, Pocet: 10}
	if digitRule(8)(identifier) {
		request.ICO = []string{identifier}
	} else {
		request.Obchodnijmeno = identifier
	}

	var response aresSearchResponse
	url := a.baseURL + "/ekonomicke-subjekty/vyhledat"
	if err := fetchJSON(ctx, a.client, a.Name(), http.MethodPost, url, request, &response); err != nil {
		return nil, err
	}

	if len(response.EkonomickeSubjekty) == 0 {
		return nil, NewFetchError(FetchNotFound, a.Name(), "no record for identifier", nil)
	}

	subject := response.EkonomickeSubjekty[0]
	a.logger.DebugContext(ctx, "ares record fetched", "ico", subject.ICO)

	return &models.RawRecord{
		Identifier: subject.ICO,
		Country:    a.Country(),
		Name:       subject.ObchodniJmeno,
		Status:     subject.StavSubjektu,
		LegalForm:  subject.PravniForma,
		Address:    subject.Sidlo.TextovaAdresa,
	}, nil
}
