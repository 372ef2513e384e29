package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the change notification bridge and
// the live-update publishers.
type Metrics struct {
	Events          *prometheus.CounterVec
	DecodeFailures  prometheus.Counter
	JobsEmitted     prometheus.Counter
	EmitFailures    prometheus.Counter
	Resyncs         prometheus.Counter
	ResyncJobs      prometheus.Counter
	Published       *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
	CircuitState    *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_status_change_events_total",
			Help: "Status change notifications received, by new status",
		}, []string{"status_code"}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_status_change_decode_failures_total",
			Help: "Notifications dropped because the payload could not be decoded",
		}),
		JobsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_bridge_jobs_emitted_total",
			Help: "Transition jobs enqueued by the bridge",
		}),
		EmitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_bridge_emit_failures_total",
			Help: "Transition jobs the bridge failed to enqueue",
		}),
		Resyncs: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_bridge_resyncs_total",
			Help: "Resync passes after a listener reconnect",
		}),
		ResyncJobs: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditflow_bridge_resync_jobs_total",
			Help: "Transition jobs re-emitted by resync passes",
		}),
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_live_updates_published_total",
			Help: "Live updates delivered, by publisher",
		}, []string{"publisher"}),
		PublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "creditflow_live_update_failures_total",
			Help: "Live updates that failed to publish, by publisher",
		}, []string{"publisher"}),
		CircuitState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "creditflow_live_update_circuit_open",
			Help: "Publisher circuit state (0=closed, 1=open)",
		}, []string{"publisher"}),
	}
}

func (m *Metrics) IncEvent(statusCode string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(statusCode).Inc()
}

func (m *Metrics) IncDecodeFailure() {
	if m == nil {
		return
	}
	m.DecodeFailures.Inc()
}

func (m *Metrics) IncJobEmitted() {
	if m == nil {
		return
	}
	m.JobsEmitted.Inc()
}

func (m *Metrics) IncEmitFailure() {
	if m == nil {
		return
	}
	m.EmitFailures.Inc()
}

func (m *Metrics) ObserveResync(jobs int) {
	if m == nil {
		return
	}
	m.Resyncs.Inc()
	m.ResyncJobs.Add(float64(jobs))
}

func (m *Metrics) IncPublished(publisher string) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(publisher).Inc()
}

func (m *Metrics) IncPublishFailure(publisher string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(publisher).Inc()
}

func (m *Metrics) SetCircuitOpen(publisher string, open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitState.WithLabelValues(publisher).Set(1)
	} else {
		m.CircuitState.WithLabelValues(publisher).Set(0)
	}
}
