package metrics

import (
	"github.com/pi3123/SmartDashcam/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ExportMetrics tracks export jobs.
//
// Metrics:
//   - dashcam_recorder_exports_total{status}
//   - dashcam_recorder_export_duration_seconds{status}
//   - dashcam_recorder_export_frames
type ExportMetrics struct {
	exportsTotal   *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	exportFrames   prometheus.Histogram
}

// NewExportMetrics creates and registers export metrics.
func NewExportMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExportMetrics {
	em := &ExportMetrics{
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "exports_total",
			Help:      "Export requests by outcome",
		}, []string{"status"}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "export_duration_seconds",
			Help:      "Wall time of export requests, including any wait for future frames",
			Buckets:   cfg.ExportDurationBuckets,
		}, []string{"status"}),
		exportFrames: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "export_frames",
			Help:      "Frames written per successful export",
			Buckets:   prometheus.ExponentialBuckets(30, 4, 8), // 1s to ~4.5h at 30fps
		}),
	}

	registry.MustRegister(em.exportsTotal, em.exportDuration, em.exportFrames)
	return em
}
