// Package metrics exposes Prometheus instruments for the review workflow and gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "replydesk"

// Metrics holds the collectors registered on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sent           prometheus.Counter
	rejected       prometheus.Counter
	sendFailures   *prometheus.CounterVec
	profileLookups *prometheus.CounterVec
	pending        prometheus.Gauge
}

// New creates a registry with process/Go collectors and the application instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Replies delivered to customers and marked Sent.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_rejected_total",
			Help:      "Tasks rejected by an operator.",
		}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Failed send attempts by reason.",
		}, []string{"reason"}),
		profileLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_lookups_total",
			Help:      "Profile lookups by result (remote, cached, fallback).",
		}, []string{"result"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_tasks",
			Help:      "Tasks currently awaiting approval.",
		}),
	}
	reg.MustRegister(m.sent, m.rejected, m.sendFailures, m.profileLookups, m.pending)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// MessageSent counts a reply delivered and marked Sent.
func (m *Metrics) MessageSent() {
	if m != nil {
		m.sent.Inc()
	}
}

// TaskRejected counts a task rejected by an operator.
func (m *Metrics) TaskRejected() {
	if m != nil {
		m.rejected.Inc()
	}
}

// SendFailed counts a failed send attempt labelled by reason.
func (m *Metrics) SendFailed(reason string) {
	if m != nil {
		m.sendFailures.WithLabelValues(reason).Inc()
	}
}

// ProfileLookup counts a profile lookup labelled by result.
func (m *Metrics) ProfileLookup(result string) {
	if m != nil {
		m.profileLookups.WithLabelValues(result).Inc()
	}
}

// SetPending sets the number of tasks awaiting approval.
func (m *Metrics) SetPending(n int) {
	if m != nil {
		m.pending.Set(float64(n))
	}
}
