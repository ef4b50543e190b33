package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors for the dashboard service.
type Metrics struct {
	Registry *prometheus.Registry

	UploadsTotal       *prometheus.CounterVec
	UploadRows         *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	ActiveSessions     prometheus.Gauge
}

// NewMetrics creates a fresh registry with all dashboard collectors
// registered. Tests get their own registry so collectors never collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bajadash",
			Name:      "uploads_total",
			Help:      "Workbook uploads by result.",
		}, []string{"result"}),
		UploadRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bajadash",
			Name:      "upload_rows_total",
			Help:      "Rows seen during cleaning, by disposition.",
		}, []string{"disposition"}),
		ProcessingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bajadash",
			Name:      "processing_duration_seconds",
			Help:      "Duration of the parse-validate-clean pass per upload.",
			Buckets:   prometheus.DefBuckets,
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "bajadash",
			Name:      "active_sessions",
			Help:      "Datasets currently held in memory.",
		}),
	}
}

// ObserveUpload records the outcome of one upload pass.
func (m *Metrics) ObserveUpload(result string, start time.Time) {
	m.UploadsTotal.WithLabelValues(result).Inc()
	m.ProcessingDuration.Observe(time.Since(start).Seconds())
}
