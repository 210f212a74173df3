package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the stream surface
type Metrics struct {
	Clients prometheus.Gauge
}

// NewMetrics creates and registers the stream metrics
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "forge_indexer"
	}

	return &Metrics{
		Clients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "ws_clients",
			Help:      "Current number of connected stream sessions",
		}),
	}
}

// SetClients records the current session count
func (m *Metrics) SetClients(count int) {
	m.Clients.Set(float64(count))
}
