// Package debt integrates the public tax-debtor lists of the Slovak and
// Czech financial administrations. The lookup yields a DebtInfo the graph
// builder turns into a debt node; countries without a supported register
// report no data.
package debt

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"nexus/internal/registry/models"
)

// vatDebtType marks value-added-tax arrears, which the register treats as a
// heavier signal than other debt types.
const vatDebtType = "DPH"

// Lookup is the debt-register contract the pipeline consumes. A nil DebtInfo
// with nil error means the country has no supported register.
type Lookup interface {
	Lookup(ctx context.Context, identifier, country string) (*models.DebtInfo, error)
}

type registerResponse struct {
	ICO       string  `json:"ico"`
	TotalDebt float64 `json:"total_debt"`
	HasDebt   bool    `json:"has_debt"`
	Debts     []struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Creditor string  `json:"creditor"`
		DebtType string  `json:"debt_type"`
		Status   string  `json:"status"`
	} `json:"debts"`
}

// Service queries the national debtor lists over HTTP.
type Service struct {
	baseURLs map[string]string
	client   *http.Client
	logger   *slog.Logger
}

type Option func(*Service)

// WithBaseURL overrides the register endpoint for one country.
func WithBaseURL(country, baseURL string) Option {
	return func(s *Service) {
		s.baseURLs[country] = baseURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		baseURLs: map[string]string{
			"sk": "https://www.financnasprava.sk/api/debt",
			"cz": "https://www.financnisprava.cz/api/debt",
		},
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup checks the debtor list for the company. Lookups are best-effort:
// the pipeline treats an error here as "no debt data", never as a request
// failure.
func (s *Service) Lookup(ctx context.Context, identifier, country string) (*models.DebtInfo, error) {
	baseURL, ok := s.baseURLs[country]
	if !ok {
		return nil, nil
	}

	endpoint := baseURL + "/" + url.PathEscape(identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "debt register unreachable", "country", country, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &models.DebtInfo{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		err := errors.New("debt register returned " + resp.Status)
		s.logger.WarnContext(ctx, "debt register error", "country", country, "status", resp.StatusCode)
		return nil, err
	}

	var payload registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	info := &models.DebtInfo{
		HasDebt:   payload.HasDebt,
		TotalDebt: payload.TotalDebt,
		DebtCount: len(payload.Debts),
	}
	for _, d := range payload.Debts {
		if d.DebtType == vatDebtType {
			info.DebtType = vatDebtType
			break
		}
	}
	info.RiskScore = Score(*info)
	return info, nil
}

// Score converts a debt profile into a risk score on the 0-10 scale. The
// weights are the register's original calibration, kept as-is.
func Score(info models.DebtInfo) float64 {
	if !info.HasDebt {
		return 0
	}

	risk := 5.0

	switch {
	case info.TotalDebt > 100000:
		risk += 3
	case info.TotalDebt > 50000:
		risk += 2
	case info.TotalDebt > 10000:
		risk += 1
	}

	switch {
	case info.DebtCount > 5:
		risk += 2
	case info.DebtCount > 2:
		risk += 1
	}

	if info.DebtType == vatDebtType {
		risk += 1
	}

	if risk > 10 {
		risk = 10
	}
	return risk
}
