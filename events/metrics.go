package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusMetrics holds the Prometheus metrics for the notification bus
type BusMetrics struct {
	Subscribers        prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
	DroppedTotal       *prometheus.CounterVec
}

// NewBusMetrics creates and registers the bus metrics
func NewBusMetrics(namespace string) *BusMetrics {
	if namespace == "" {
		namespace = "forge_indexer"
	}

	return &BusMetrics{
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "subscribers",
			Help:      "Current number of active subscriptions",
		}),
		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "notifications_total",
			Help:      "Total number of notifications published",
		}, []string{"topic"}),
		DroppedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "dropped_total",
			Help:      "Total number of notifications dropped on full channels",
		}, []string{"topic"}),
	}
}

// SetSubscribers records the current subscription count
func (m *BusMetrics) SetSubscribers(count int) {
	m.Subscribers.Set(float64(count))
}

// RecordPublished counts one published notification
func (m *BusMetrics) RecordPublished(topic Topic) {
	m.NotificationsTotal.WithLabelValues(string(topic)).Inc()
}

// RecordDropped counts one dropped notification
func (m *BusMetrics) RecordDropped(topic Topic) {
	m.DroppedTotal.WithLabelValues(string(topic)).Inc()
}
