package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SearchesTotal  *prometheus.CounterVec
	DegradedTotal  *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_searches_total",
			Help: "Total company searches by country and cache outcome",
		}, []string{"country", "cache"}),
		DegradedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_searches_degraded_total",
			Help: "Total searches served with a degraded fallback result",
		}, []string{"country"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexus_search_duration_seconds",
			Help:    "End-to-end search latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"country"}),
	}
}

func (m *Metrics) RecordSearch(country string, cacheHit bool, duration time.Duration) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.SearchesTotal.WithLabelValues(country, cache).Inc()
	m.SearchDuration.WithLabelValues(country).Observe(duration.Seconds())
}

func (m *Metrics) RecordDegraded(country string) {
	m.DegradedTotal.WithLabelValues(country).Inc()
}
