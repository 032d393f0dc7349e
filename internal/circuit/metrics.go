package circuit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CircuitOpenedTotal *prometheus.CounterVec
	CallsRejected      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		CircuitOpenedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_circuit_opened_total",
			Help: "Total circuit breaker open transitions per upstream",
		}, []string{"upstream"}),
		CallsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_circuit_calls_rejected_total",
			Help: "Total calls rejected while a circuit was open",
		}, []string{"upstream"}),
	}
}

func (m *Metrics) RecordOpened(upstream string) {
	m.CircuitOpenedTotal.WithLabelValues(upstream).Inc()
}

func (m *Metrics) RecordRejected(upstream string) {
	m.CallsRejected.WithLabelValues(upstream).Inc()
}
