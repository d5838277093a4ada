// Package metrics registers the Prometheus collectors for the notification
// subsystem. All record methods are nil-safe so library code can be used
// without a metrics sink in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the subsystem's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	eventsReceived  prometheus.Counter
	reconnects      prometheus.Counter
	confirmFailures *prometheus.CounterVec
	unread          prometheus.Gauge
	connected       prometheus.Gauge
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		eventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "orderpulse_push_events_received_total",
			Help: "Push notification events received over the transport.",
		}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "orderpulse_transport_reconnects_total",
			Help: "Reconnection attempts made by the push transport.",
		}),
		confirmFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orderpulse_confirmation_failures_total",
			Help: "Backend confirmation calls that failed (local state is kept).",
		}, []string{"op"}),
		unread: factory.NewGauge(prometheus.GaugeOpts{
			Name: "orderpulse_unread_notifications",
			Help: "Current unread notification count.",
		}),
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "orderpulse_transport_connected",
			Help: "1 while the push transport is connected, 0 otherwise.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventReceived records one inbound push event.
func (m *Metrics) EventReceived() {
	if m == nil {
		return
	}
	m.eventsReceived.Inc()
}

// Reconnect records one transport reconnection attempt.
func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// ConfirmFailure records a failed backend confirmation for the given operation.
func (m *Metrics) ConfirmFailure(op string) {
	if m == nil {
		return
	}
	m.confirmFailures.WithLabelValues(op).Inc()
}

// SetUnread records the current unread count.
func (m *Metrics) SetUnread(n int) {
	if m == nil {
		return
	}
	m.unread.Set(float64(n))
}

// SetConnected records the transport connection state.
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}
