package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"nexus/internal/registry/models"
)

const krsDefaultBaseURL = "https://api-krs.ms.gov.pl/api/krs"

// KRSAdapter queries the Polish Krajowy Rejestr Sądowy.
type KRSAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type krsExtractResponse struct {
	Odpis struct {
		Dane struct {
			Dzial1 struct {
				DanePodmiotu struct {
					Nazwa       string `json:"nazwa"`
					FormaPrawna string `json:"formaPrawna"`
					NIP         string `json:"nip"`
				} `json:"danePodmiotu"`
				SiedzibaIAdres struct {
					Adres string `json:"adres"`
				} `json:"siedzibaIAdres"`
			} `json:"dzial1"`
			Dzial2 struct {
				Reprezentacja []struct {
					Nazwisko string `json:"nazwisko"`
					Imiona   string `json:"imiona"`
					Funkcja  string `json:"funkcja"`
				} `json:"reprezentacja"`
			} `json:"dzial2"`
		} `json:"dane"`
	} `json:"odpis"`
}

func NewKRS(opts ...Option) *KRSAdapter {
	o := newOptions(krsDefaultBaseURL, opts...)
	return &KRSAdapter{baseURL: o.baseURL, client: o.client, logger: o.logger}
}

func (a *KRSAdapter) Name() string    { return "pl_krs" }
func (a *KRSAdapter) Country() string { return "pl" }

func (a *KRSAdapter) Fetch(ctx context.Context, identifier string) (*models.RawRecord, error) {
	var response krsExtractResponse
	endpoint := a.baseURL + "/OdpisAktualny/" + url.PathEscape(identifier) + "?rejestr=P&format=json"
	if err := fetchJSON(ctx, a.client, a.Name(), http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	subject := response.Odpis.Dane.Dzial1.DanePodmiotu
	if subject.Nazwa == "" {
		return nil, NewFetchError(FetchNotFound, a.Name(), "no record for identifier", nil)
	}
	a.logger.DebugContext(ctx, "krs record fetched", "nip", subject.NIP)

	record := &models.RawRecord{
		Identifier: identifier,
		Country:    a.Country(),
		Name:       subject.Nazwa,
		LegalForm:  subject.FormaPrawna,
		Address:    response.Odpis.Dane.Dzial1.SiedzibaIAdres.Adres,
	}
	for _, rep := range response.Odpis.Dane.Dzial2.Reprezentacja {
		record.Executives = append(record.Executives, models.Party{
			Name: rep.Imiona + " " + rep.Nazwisko,
			Role: rep.Funkcja,
		})
	}
	record.Executives = capExecutives(record.Executives)
	return record, nil
}
