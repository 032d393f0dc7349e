package debt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"nexus/internal/registry/models"
)

type DebtSuite struct {
	suite.Suite
}

func TestDebtSuite(t *testing.T) {
	suite.Run(t, new(DebtSuite))
}

func (s *DebtSuite) TestScore() {
	cases := []struct {
		name string
		info models.DebtInfo
		want float64
	}{
		{"no debt", models.DebtInfo{}, 0},
		{"small debt", models.DebtInfo{HasDebt: true, TotalDebt: 5000, DebtCount: 1}, 5},
		{"over 10k", models.DebtInfo{HasDebt: true, TotalDebt: 25000, DebtCount: 1}, 6},
		{"over 50k", models.DebtInfo{HasDebt: true, TotalDebt: 60000, DebtCount: 1}, 7},
		{"over 100k", models.DebtInfo{HasDebt: true, TotalDebt: 250000, DebtCount: 1}, 8},
		{"many debts", models.DebtInfo{HasDebt: true, TotalDebt: 5000, DebtCount: 6}, 7},
		{"several debts", models.DebtInfo{HasDebt: true, TotalDebt: 5000, DebtCount: 3}, 6},
		{"vat debt", models.DebtInfo{HasDebt: true, TotalDebt: 5000, DebtCount: 1, DebtType: "DPH"}, 6},
		{"vat over 100k", models.DebtInfo{HasDebt: true, TotalDebt: 125000, DebtCount: 1, DebtType: "DPH"}, 9},
		{"clamped at ten", models.DebtInfo{HasDebt: true, TotalDebt: 500000, DebtCount: 9, DebtType: "DPH"}, 10},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, Score(tc.info))
		})
	}
}

func (s *DebtSuite) TestLookup() {
	s.Run("register hit yields scored debt info", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/88888888", r.URL.Path)
			w.Write([]byte(`{
				"ico":"88888888",
				"has_debt":true,
				"total_debt":25000.0,
				"debts":[{"amount":25000.0,"currency":"EUR","creditor":"Finančná správa SR","debt_type":"DPH","status":"AKTÍVNY"}]
			}`))
		}))
		defer server.Close()

		svc := NewService(WithBaseURL("sk", server.URL))
		info, err := svc.Lookup(context.Background(), "88888888", "sk")
		s.Require().NoError(err)
		s.Require().NotNil(info)

		s.True(info.HasDebt)
		s.Equal(25000.0, info.TotalDebt)
		s.Equal(1, info.DebtCount)
		s.Equal("DPH", info.DebtType)
		s.Equal(7.0, info.RiskScore) // base 5 + over-10k + VAT
	})

	s.Run("missing record means no debt", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		svc := NewService(WithBaseURL("sk", server.URL))
		info, err := svc.Lookup(context.Background(), "11111111", "sk")
		s.Require().NoError(err)
		s.Require().NotNil(info)
		s.False(info.HasDebt)
		s.Equal(0.0, info.RiskScore)
	})

	s.Run("unsupported country has no register", func() {
		svc := NewService()
		info, err := svc.Lookup(context.Background(), "12345678901", "hu")
		s.NoError(err)
		s.Nil(info)
	})

	s.Run("register outage surfaces as error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		svc := NewService(WithBaseURL("cz", server.URL))
		_, err := svc.Lookup(context.Background(), "27074358", "cz")
		s.Error(err)
	})
}

func (s *DebtSuite) TestFixtureLookup() {
	s.Run("demo identifier scores nine", func() {
		lookup := NewFixture(NewService(), nil)

		info, err := lookup.Lookup(context.Background(), "88888888", "sk")
		s.Require().NoError(err)
		s.Require().NotNil(info)
		s.True(info.HasDebt)
		s.Equal(9.0, info.RiskScore)
	})

	s.Run("other identifiers delegate", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"ico":"11111111","has_debt":false,"total_debt":0,"debts":[]}`))
		}))
		defer server.Close()

		lookup := NewFixture(NewService(WithBaseURL("sk", server.URL)), nil)
		info, err := lookup.Lookup(context.Background(), "11111111", "sk")
		s.Require().NoError(err)
		s.False(info.HasDebt)
	})
}
