package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type MetadataSuite struct {
	suite.Suite
}

func TestMetadataSuite(t *testing.T) {
	suite.Run(t, new(MetadataSuite))
}

func (s *MetadataSuite) TestClientIP() {
	s.Run("prefers forwarded-for first hop", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		s.Equal("203.0.113.7", ClientIP(r))
	})

	s.Run("falls back to remote addr", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.5:41234"
		s.Equal("192.0.2.5", ClientIP(r))
	})
}

func (s *MetadataSuite) TestDeviceSummary() {
	s.Run("browser and os parsed", func() {
		summary := DeviceSummary(chromeUA)
		s.Contains(summary, "Chrome")
		s.Contains(summary, "on")
	})

	s.Run("empty header is unknown", func() {
		s.Equal("unknown", DeviceSummary(""))
	})

	s.Run("crawler collapses to bot", func() {
		s.Equal("bot", DeviceSummary("Googlebot/2.1 (+http://www.google.com/bot.html)"))
	})
}

func (s *MetadataSuite) TestClientMetadata() {
	var captured ClientInfo
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = ClientInfoFrom(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.Header.Set("User-Agent", chromeUA)

	ClientMetadata(next).ServeHTTP(httptest.NewRecorder(), r)

	s.Equal("203.0.113.7", captured.IP)
	s.Contains(captured.UserAgent, "Chrome")
}

func (s *MetadataSuite) TestClientInfoFromWithoutMiddleware() {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	s.Equal(ClientInfo{}, ClientInfoFrom(r.Context()))
}
