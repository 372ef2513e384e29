package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for lifecycle transitions.
type Metrics struct {
	Transitions    *prometheus.CounterVec
	ProviderErrors *prometheus.CounterVec
	StaleJobs      prometheus.Counter
	Conflicts      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_status_transitions_total",
			Help: "Committed status transitions",
		}, []string{"country", "from", "to"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_provider_errors_total",
			Help: "Recognized provider errors turned into FAILED_FROM_PROVIDER",
		}, []string{"provider", "code"}),
		StaleJobs: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_stale_transition_jobs_total",
			Help: "Transition jobs skipped because the request had already moved on",
		}),
		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_transition_conflicts_total",
			Help: "Transitions that lost the compare-and-set race",
		}),
	}
}

func (m *Metrics) IncTransition(country, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(country, from, to).Inc()
}

func (m *Metrics) IncProviderError(provider, code string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(provider, code).Inc()
}

func (m *Metrics) IncStaleJob() {
	if m == nil {
		return
	}
	m.StaleJobs.Inc()
}

func (m *Metrics) IncConflict() {
	if m == nil {
		return
	}
	m.Conflicts.Inc()
}
