package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for provider callbacks.
type Metrics struct {
	Received *prometheus.CounterVec
	Rejected *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Received: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_webhooks_received_total",
			Help: "Bank data callbacks applied, by country and outcome",
		}, []string{"country", "outcome"}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_webhooks_rejected_total",
			Help: "Bank data callbacks refused, by error code",
		}, []string{"code"}),
	}
}

func (m *Metrics) IncReceived(country string, outcome Outcome) {
	if m == nil {
		return
	}
	m.Received.WithLabelValues(country, string(outcome)).Inc()
}

func (m *Metrics) IncRejected(code string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(code).Inc()
}
