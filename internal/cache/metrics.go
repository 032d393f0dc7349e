package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Hits            *prometheus.CounterVec
	Misses          prometheus.Counter
	SharedTierError prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Hits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_cache_hits_total",
			Help: "Total cache hits by serving tier",
		}, []string{"tier"}),
		Misses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nexus_cache_misses_total",
			Help: "Total cache misses across all tiers",
		}),
		SharedTierError: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nexus_cache_shared_tier_errors_total",
			Help: "Total shared-tier failures absorbed by local degradation",
		}),
	}
}

func (m *Metrics) RecordHit(tier string) {
	m.Hits.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordMiss() {
	m.Misses.Inc()
}

func (m *Metrics) RecordSharedTierError() {
	m.SharedTierError.Inc()
}
