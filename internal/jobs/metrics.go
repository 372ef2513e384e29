package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the job queue.
type Metrics struct {
	Enqueued  *prometheus.CounterVec
	Processed *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Requeued  prometheus.Counter
	// LeaseExpired counts jobs failed by the reaper on their final attempt.
	LeaseExpired prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Enqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_jobs_enqueued_total",
			Help: "Jobs enqueued, by type",
		}, []string{"job_type"}),
		Processed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_jobs_processed_total",
			Help: "Job executions, by type and outcome (completed, retried, failed, exhausted, lease_lost)",
		}, []string{"job_type", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creditflow_jobs_duration_seconds",
			Help:    "Job handler latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_type"}),
		Requeued: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_jobs_stale_requeued_total",
			Help: "Running jobs returned to the queue after their lease expired",
		}),
		LeaseExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_jobs_lease_expired_total",
			Help: "Running jobs failed after their final attempt's lease expired",
		}),
	}
}

func (m *Metrics) IncEnqueued(jobType string) {
	m.Enqueued.WithLabelValues(jobType).Inc()
}

func (m *Metrics) IncProcessed(jobType, outcome string) {
	m.Processed.WithLabelValues(jobType, outcome).Inc()
}

func (m *Metrics) ObserveDuration(jobType string, seconds float64) {
	m.Duration.WithLabelValues(jobType).Observe(seconds)
}

func (m *Metrics) AddRequeued(n int) {
	m.Requeued.Add(float64(n))
}

func (m *Metrics) AddLeaseExpired(n int) {
	m.LeaseExpired.Add(float64(n))
}
