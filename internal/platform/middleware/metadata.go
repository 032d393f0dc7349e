package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// ClientIP extracts the originating client address, preferring proxy headers
// over the socket peer. Used as the rate limiter client key for anonymous
// requests.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientInfo is the request metadata recorded with each search.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type clientInfoKey struct{}

// ClientMetadata resolves the client IP and a parsed user-agent summary once
// per request and carries them on the context for the service layer.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := ClientInfo{
			IP:        ClientIP(r),
			UserAgent: DeviceSummary(r.UserAgent()),
		}
		next.ServeHTTP(w, r.WithContext(WithClientInfo(r.Context(), info)))
	})
}

// WithClientInfo stores request metadata on the context.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFrom returns the metadata stored by ClientMetadata, or the zero
// value when the middleware is not installed.
func ClientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

// DeviceSummary condenses a raw User-Agent header into a short browser/OS
// description for history and analytics records.
func DeviceSummary(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "unknown"
	}

	ua := useragent.New(raw)
	if ua.Bot() {
		return "bot"
	}

	name, version := ua.Browser()
	if name == "" {
		return "unknown"
	}
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " on " + os
	}
	return summary
}
