package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsAllowed *prometheus.CounterVec
	RequestsDenied  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RequestsAllowed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_ratelimit_requests_allowed_total",
			Help: "Total requests admitted by the token bucket limiter",
		}, []string{"tier"}),
		RequestsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_ratelimit_requests_denied_total",
			Help: "Total requests denied by the token bucket limiter",
		}, []string{"tier"}),
	}
}

func (m *Metrics) RecordAllowed(tier string) {
	m.RequestsAllowed.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordDenied(tier string) {
	m.RequestsDenied.WithLabelValues(tier).Inc()
}
