package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"creditflow/internal/credit/models"
)

// Metrics holds Prometheus metrics for the audit trail.
type Metrics struct {
	Written       *prometheus.CounterVec
	WriteFailures prometheus.Counter
	WriteDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Written: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_audit_transitions_written_total",
			Help: "Status transitions appended to the audit trail, by trigger",
		}, []string{"triggered_by"}),
		WriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_audit_write_failures_total",
			Help: "Audit appends that failed and were skipped",
		}),
		WriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditflow_audit_write_duration_seconds",
			Help:    "Latency of audit trail appends",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncWritten(trigger models.Trigger) {
	m.Written.WithLabelValues(string(trigger)).Inc()
}

func (m *Metrics) IncWriteFailures() {
	m.WriteFailures.Inc()
}

func (m *Metrics) ObserveWriteDuration(seconds float64) {
	m.WriteDuration.Observe(seconds)
}
