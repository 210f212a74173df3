package fetch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xmhha/forge-indexer-go/events"
)

// Metrics holds all Prometheus metrics for the fetch pipeline
type Metrics struct {
	ChunksTotal            *prometheus.CounterVec
	LogsFetchedTotal       *prometheus.CounterVec
	FailedRangesTotal      *prometheus.CounterVec
	ProviderRotationsTotal prometheus.Counter
	ScanDuration           prometheus.Histogram
}

// NewMetrics creates and registers all fetch metrics
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "forge_indexer"
	}
	subsystem := "fetch"

	return &Metrics{
		ChunksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chunks_total",
			Help:      "Total number of sub-range queries served",
		}, []string{"kind"}),
		LogsFetchedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "logs_fetched_total",
			Help:      "Total number of raw logs fetched",
		}, []string{"kind"}),
		FailedRangesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failed_ranges_total",
			Help:      "Total number of sub-ranges abandoned after exhausting retries",
		}, []string{"kind"}),
		ProviderRotationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_rotations_total",
			Help:      "Total number of failovers to an alternate provider",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scan_duration_seconds",
			Help:      "Full scan duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}

// RecordChunk counts a served sub-range query and its logs
func (m *Metrics) RecordChunk(kind events.Kind, logCount int) {
	m.ChunksTotal.WithLabelValues(string(kind)).Inc()
	m.LogsFetchedTotal.WithLabelValues(string(kind)).Add(float64(logCount))
}

// RecordFailedRange counts an abandoned sub-range
func (m *Metrics) RecordFailedRange(kind events.Kind) {
	m.FailedRangesTotal.WithLabelValues(string(kind)).Inc()
}

// RecordRotation counts a failover to an alternate provider
func (m *Metrics) RecordRotation() {
	m.ProviderRotationsTotal.Inc()
}

// ObserveScanDuration records how long a full scan took
func (m *Metrics) ObserveScanDuration(duration time.Duration) {
	m.ScanDuration.Observe(duration.Seconds())
}
