package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay counters on a registry of their own.
type Metrics struct {
	Connections prometheus.Counter
	Bytes       prometheus.Counter
	WriteErrors prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers the relay counters.
func NewMetrics() *Metrics {
	m := &Metrics{
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "escpos_relay_connections_total",
			Help: "Client connections accepted by the relay.",
		}),
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "escpos_relay_bytes_total",
			Help: "Bytes forwarded to the printer.",
		}),
		WriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "escpos_relay_write_errors_total",
			Help: "Chunks the printer transport failed to accept.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Connections, m.Bytes, m.WriteErrors)
	return m
}

// Registry returns the registry the counters live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the counters in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
