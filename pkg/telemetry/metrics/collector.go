package metrics

import (
	"time"

	"github.com/pi3123/SmartDashcam/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric of the recorder.
//
// All methods are safe on a nil *Collector and become no-ops when metrics
// are disabled, so components can record unconditionally.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	capture *CaptureMetrics
	export  *ExportMetrics
}

// NewCollector creates a metrics collector registered on registry. If
// registry is nil a fresh one is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.ExportDurationBuckets) == 0 {
		cfg.ExportDurationBuckets = config.DefaultExportDurationBuckets
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		capture:  NewCaptureMetrics(cfg, registry),
		export:   NewExportMetrics(cfg, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// Drop reasons reported by RecordFrameDropped.
const (
	DropNonMonotonic = "non_monotonic"
	DropQueueFull    = "queue_full"
	DropRejected     = "rejected"
)

// RecordFrameCaptured counts a frame accepted into the buffer.
func (c *Collector) RecordFrameCaptured() {
	if !c.enabled() {
		return
	}
	c.capture.framesCaptured.Inc()
}

// RecordFrameDropped counts a frame discarded before reaching the buffer.
func (c *Collector) RecordFrameDropped(reason string) {
	if !c.enabled() {
		return
	}
	c.capture.framesDropped.WithLabelValues(reason).Inc()
}

// RecordEviction counts frames evicted from the head of the buffer.
func (c *Collector) RecordEviction(n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.capture.framesEvicted.Add(float64(n))
}

// RecordArtifactError counts a failed store operation ("put", "get",
// "delete", "list").
func (c *Collector) RecordArtifactError(op string) {
	if !c.enabled() {
		return
	}
	c.capture.artifactErrors.WithLabelValues(op).Inc()
}

// UpdateBuffer reports the buffer length and capacity.
func (c *Collector) UpdateBuffer(frames, capacity int) {
	if !c.enabled() {
		return
	}
	c.capture.bufferFrames.Set(float64(frames))
	c.capture.bufferCapacity.Set(float64(capacity))
}

// UpdatePersistQueueDepth reports the number of queued store operations.
func (c *Collector) UpdatePersistQueueDepth(depth int) {
	if !c.enabled() {
		return
	}
	c.capture.persistQueueDepth.Set(float64(depth))
}

// RecordOrphansSwept counts artifacts removed by the orphan sweep.
func (c *Collector) RecordOrphansSwept(n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.capture.orphansSwept.Add(float64(n))
}

// RecordExport records a finished export. status is "success" or the
// failure class ("invalid_window", "empty", "error", "cancelled").
func (c *Collector) RecordExport(status string, duration time.Duration, frames int) {
	if !c.enabled() {
		return
	}
	c.export.exportsTotal.WithLabelValues(status).Inc()
	c.export.exportDuration.WithLabelValues(status).Observe(duration.Seconds())
	if frames > 0 {
		c.export.exportFrames.Observe(float64(frames))
	}
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
