// Package metric provides Prometheus metrics for minikv.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minikv"

// Command outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Registry holds all application metrics.
//
// All recording methods are safe to call on a nil *Registry, so components
// can run without metrics in tests.
type Registry struct {
	reg *prometheus.Registry

	// Connection metrics
	ConnectionsActive   prometheus.Gauge
	ConnectionsAccepted prometheus.Counter
	AcceptErrors        prometheus.Counter
	ProtocolErrors      prometheus.Counter

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Pub/Sub metrics
	MessagesPublished prometheus.Counter
	MessagesDelivered prometheus.Counter
}

// NewRegistry creates a registry with every application metric plus the
// Go runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of client connections currently being served.",
		}),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted client connections.",
		}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_errors_total",
			Help:      "Total number of failed accept calls.",
		}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total number of connections closed for malformed input.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of executed commands.",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution latency in seconds.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"command"}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "messages_published_total",
			Help:      "Total number of PUBLISH calls.",
		}),
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "messages_delivered_total",
			Help:      "Total number of messages queued to subscribers.",
		}),
	}

	r.reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsAccepted,
		r.AcceptErrors,
		r.ProtocolErrors,
		r.CommandsTotal,
		r.CommandDuration,
		r.MessagesPublished,
		r.MessagesDelivered,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// MustRegister adds extra collectors, such as a store Collector.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.ConnectionsAccepted.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records the end of a connection.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
}

// AcceptFailed records a failed accept.
func (r *Registry) AcceptFailed() {
	if r == nil {
		return
	}
	r.AcceptErrors.Inc()
}

// ProtocolFailed records a connection dropped for malformed input.
func (r *Registry) ProtocolFailed() {
	if r == nil {
		return
	}
	r.ProtocolErrors.Inc()
}

// ObserveCommand records one executed command.
func (r *Registry) ObserveCommand(command, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(command, status).Inc()
	r.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ObservePublish records one PUBLISH and how many subscribers received it.
func (r *Registry) ObservePublish(receivers int) {
	if r == nil {
		return
	}
	r.MessagesPublished.Inc()
	r.MessagesDelivered.Add(float64(receivers))
}
