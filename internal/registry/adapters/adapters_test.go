package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DetectSuite struct {
	suite.Suite
}

func TestDetectSuite(t *testing.T) {
	suite.Run(t, new(DetectSuite))
}

func (s *DetectSuite) TestDetectCountry() {
	cases := []struct {
		identifier string
		country    string
	}{
		{"12345678901", "hu"}, // 11-digit tax number
		{"1234567890", "pl"},  // 10-digit NIP
		{"88888888", "sk"},    // 8-digit IČO
		{"1234567", "cz"},     // 7 digits falls through
		{"Alfa Trade s.r.o.", "cz"},
		{"", "cz"},
		{" 8888 8888 ", "sk"},  // separators stripped before matching
		{"123-456-78-90", "pl"},
	}
	for _, tc := range cases {
		s.Equal(tc.country, DetectCountry(tc.identifier), "identifier %q", tc.identifier)
	}
}

type AdapterSuite struct {
	suite.Suite
}

func TestAdapterSuite(t *testing.T) {
	suite.Run(t, new(AdapterSuite))
}

func (s *AdapterSuite) TestRPOFetch() {
	s.Run("record normalized", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/search", r.URL.Path)
			s.Equal("88888888", r.URL.Query().Get("identifier"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"results":[{
				"identifier":"88888888",
				"fullName":"Alfa Trade s.r.o.",
				"formattedAddress":"Bratislava, Hlavná 1",
				"legalForm":"s.r.o.",
				"status":"active",
				"statutoryBodies":[{"name":"Ján Novák","role":"konateľ"}],
				"stakeholders":[{"name":"Peter Horváth","share":"100%"}]
			}]}`))
		}))
		defer server.Close()

		adapter := NewRPO(WithBaseURL(server.URL))
		record, err := adapter.Fetch(context.Background(), "88888888")
		s.Require().NoError(err)

		s.Equal("88888888", record.Identifier)
		s.Equal("sk", record.Country)
		s.Equal("Alfa Trade s.r.o.", record.Name)
		s.Require().Len(record.Executives, 1)
		s.Equal("Ján Novák", record.Executives[0].Name)
		s.Require().Len(record.Owners, 1)
		s.Equal("100%", record.Owners[0].Detail)
	})

	s.Run("empty result set is not found", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"results":[]}`))
		}))
		defer server.Close()

		_, err := NewRPO(WithBaseURL(server.URL)).Fetch(context.Background(), "11111111")
		s.True(IsNotFound(err))
		s.False(IsUpstreamFault(err))
	})

	s.Run("server error is an upstream fault", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewRPO(WithBaseURL(server.URL)).Fetch(context.Background(), "88888888")
		s.True(IsUpstreamFault(err))
		s.False(IsNotFound(err))
	})

	s.Run("slow upstream is a timeout fault", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"results":[]}`))
		}))
		defer server.Close()

		adapter := NewRPO(
			WithBaseURL(server.URL),
			WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
		)
		_, err := adapter.Fetch(context.Background(), "88888888")
		s.True(IsUpstreamFault(err))

		var fe *FetchError
		s.Require().ErrorAs(err, &fe)
		s.Equal(FetchTimeout, fe.Category)
	})

	s.Run("oversized board is capped", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"results":[{
				"identifier":"88888888",
				"fullName":"Alfa Trade s.r.o.",
				"statutoryBodies":[
					{"name":"A","role":"konateľ"},
					{"name":"B","role":"konateľ"},
					{"name":"C","role":"konateľ"},
					{"name":"D","role":"konateľ"},
					{"name":"E","role":"konateľ"}
				]
			}]}`))
		}))
		defer server.Close()

		record, err := NewRPO(WithBaseURL(server.URL)).Fetch(context.Background(), "88888888")
		s.Require().NoError(err)
		s.Len(record.Executives, 3)
		s.Equal("C", record.Executives[2].Name)
	})

	s.Run("garbage payload is malformed", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer server.Close()

		_, err := NewRPO(WithBaseURL(server.URL)).Fetch(context.Background(), "88888888")
		var fe *FetchError
		s.Require().ErrorAs(err, &fe)
		s.Equal(FetchMalformed, fe.Category)
		s.False(IsUpstreamFault(err))
	})
}

func (s *AdapterSuite) TestARESFetch() {
	s.Run("searches by ico for numeric identifier", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal(http.MethodPost, r.Method)
			w.Write([]byte(`{"ekonomickeSubjekty":[{
				"ico":"27074358",
				"obchodniJmeno":"Beta Group a.s.",
				"pravniForma":"a.s.",
				"stavSubjektu":"aktivní",
				"sidlo":{"textovaAdresa":"Praha 1, Dlouhá 13"}
			}]}`))
		}))
		defer server.Close()

		record, err := NewARES(WithBaseURL(server.URL)).Fetch(context.Background(), "27074358")
		s.Require().NoError(err)
		s.Equal("27074358", record.Identifier)
		s.Equal("cz", record.Country)
		s.Equal("Beta Group a.s.", record.Name)
		s.Equal("Praha 1, Dlouhá 13", record.Address)
	})

	s.Run("empty result set is not found", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"ekonomickeSubjekty":[]}`))
		}))
		defer server.Close()

		_, err := NewARES(WithBaseURL(server.URL)).Fetch(context.Background(), "neexistujúca firma")
		s.True(IsNotFound(err))
	})
}

func (s *AdapterSuite) TestFixture() {
	s.Run("demo identifier serves fixture record", func() {
		adapter := NewFixture(NewRPO(WithBaseURL("http://unreachable.invalid")), nil)

		record, err := adapter.Fetch(context.Background(), FixtureIdentifier)
		s.Require().NoError(err)
		s.Equal("Testovacia Spoločnosť s.r.o.", record.Name)
		s.Require().Len(record.Subsidiaries, 1)
		s.Equal("77777777", record.Subsidiaries[0].Identifier)

		// Both companies share the same manager by stable id.
		s.Equal(record.Executives[1].ID, record.Subsidiaries[0].Executives[0].ID)
	})

	s.Run("other identifiers delegate", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"results":[{"identifier":"11111111","fullName":"Iná Firma s.r.o."}]}`))
		}))
		defer server.Close()

		adapter := NewFixture(NewRPO(WithBaseURL(server.URL)), nil)
		record, err := adapter.Fetch(context.Background(), "11111111")
		s.Require().NoError(err)
		s.Equal("Iná Firma s.r.o.", record.Name)
	})
}
