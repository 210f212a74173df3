package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for event application
type Metrics struct {
	// EventsAppliedTotal counts applied events by kind
	EventsAppliedTotal *prometheus.CounterVec

	// EventsSkippedTotal counts skipped events by reason
	EventsSkippedTotal *prometheus.CounterVec

	// MetadataResolutionsTotal counts metadata resolutions by outcome
	MetadataResolutionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers state metrics
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "forge_indexer"
	}

	return &Metrics{
		EventsAppliedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "events_applied_total",
			Help:      "Total events applied to the entity store by kind",
		}, []string{"kind"}),
		EventsSkippedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "events_skipped_total",
			Help:      "Total events skipped during application by reason",
		}, []string{"reason"}),
		MetadataResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "metadata_resolutions_total",
			Help:      "Total metadata resolutions by outcome",
		}, []string{"outcome"}),
	}
}

// RecordApplied counts one applied event
func (m *Metrics) RecordApplied(kind string) {
	m.EventsAppliedTotal.WithLabelValues(kind).Inc()
}

// RecordSkipped counts one skipped event
func (m *Metrics) RecordSkipped(reason string) {
	m.EventsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordResolution counts one metadata resolution
func (m *Metrics) RecordResolution(outcome string) {
	m.MetadataResolutionsTotal.WithLabelValues(outcome).Inc()
}
