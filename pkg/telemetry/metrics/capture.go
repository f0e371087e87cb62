package metrics

import (
	"github.com/pi3123/SmartDashcam/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CaptureMetrics tracks the capture loop, the persistence queue, and the
// retention buffer.
//
// Metrics:
//   - dashcam_recorder_frames_captured_total
//   - dashcam_recorder_frames_dropped_total{reason}
//   - dashcam_recorder_frames_evicted_total
//   - dashcam_recorder_artifact_errors_total{op}
//   - dashcam_recorder_buffer_frames
//   - dashcam_recorder_buffer_capacity
//   - dashcam_recorder_persist_queue_depth
//   - dashcam_recorder_orphans_swept_total
type CaptureMetrics struct {
	framesCaptured    prometheus.Counter
	framesDropped     *prometheus.CounterVec
	framesEvicted     prometheus.Counter
	artifactErrors    *prometheus.CounterVec
	bufferFrames      prometheus.Gauge
	bufferCapacity    prometheus.Gauge
	persistQueueDepth prometheus.Gauge
	orphansSwept      prometheus.Counter
}

// NewCaptureMetrics creates and registers capture metrics.
func NewCaptureMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CaptureMetrics {
	cm := &CaptureMetrics{
		framesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "frames_captured_total",
			Help:      "Frames appended to the retention buffer",
		}),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "frames_dropped_total",
			Help:      "Frames discarded before reaching the retention buffer",
		}, []string{"reason"}),
		framesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "frames_evicted_total",
			Help:      "Frames evicted from the head of the retention buffer",
		}),
		artifactErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "artifact_errors_total",
			Help:      "Failed artifact store operations",
		}, []string{"op"}),
		bufferFrames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "buffer_frames",
			Help:      "Frames currently retained",
		}),
		bufferCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "buffer_capacity",
			Help:      "Maximum number of retained frames",
		}),
		persistQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "persist_queue_depth",
			Help:      "Store operations waiting in the persistence queue",
		}),
		orphansSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orphans_swept_total",
			Help:      "Untracked artifacts removed by the orphan sweep",
		}),
	}

	registry.MustRegister(
		cm.framesCaptured,
		cm.framesDropped,
		cm.framesEvicted,
		cm.artifactErrors,
		cm.bufferFrames,
		cm.bufferCapacity,
		cm.persistQueueDepth,
		cm.orphansSwept,
	)

	return cm
}
