package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Failure stages recorded by Metrics.
const (
	stageCreate = "create"
	stageOpen   = "open"
)

// Metrics counts connection lifecycle events. One Metrics may be shared by
// any number of sessions; a nil *Metrics records nothing.
type Metrics struct {
	created     prometheus.Counter
	opened      prometheus.Counter
	failures    *prometheus.CounterVec
	unavailable prometheus.Counter
}

// NewMetrics creates the session counters and registers them with reg.
// It panics if they are already registered there.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redis",
			Subsystem: "session",
			Name:      "connections_created_total",
			Help:      "Connection handles built from resolved settings, including replacements",
		}),
		opened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redis",
			Subsystem: "session",
			Name:      "connections_opened_total",
			Help:      "Connections that completed their initial handshake",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redis",
			Subsystem: "session",
			Name:      "connection_failures_total",
			Help:      "Failed attempts to create or open a connection, by stage",
		}, []string{"stage"}),
		unavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redis",
			Subsystem: "session",
			Name:      "unavailable_total",
			Help:      "IsAvailable checks that reported the server unreachable",
		}),
	}

	reg.MustRegister(m.created, m.opened, m.failures, m.unavailable)
	return m
}

func (m *Metrics) connCreated() {
	if m != nil {
		m.created.Inc()
	}
}

func (m *Metrics) connOpened() {
	if m != nil {
		m.opened.Inc()
	}
}

func (m *Metrics) connFailed(stage string) {
	if m != nil {
		m.failures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) sessionUnavailable() {
	if m != nil {
		m.unavailable.Inc()
	}
}
