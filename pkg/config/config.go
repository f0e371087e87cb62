package config

import "time"

// Config is the root configuration structure for the dashcam recorder.
// It contains the capture device, artifact storage, retention, export,
// admin server, and telemetry settings.
type Config struct {
	// Camera configures the capture source and its nominal frame geometry.
	Camera CameraConfig `yaml:"camera" toml:"camera"`

	// Storage configures where and how captured frames are persisted.
	Storage StorageConfig `yaml:"storage" toml:"storage"`

	// Retention bounds the recorded history.
	Retention RetentionConfig `yaml:"retention" toml:"retention"`

	// Export configures the export pipeline and its output encoder.
	Export ExportConfig `yaml:"export" toml:"export"`

	// Server configures the optional admin HTTP server.
	Server ServerConfig `yaml:"server" toml:"server"`

	// Telemetry contains configuration for logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// CameraConfig contains capture source configuration.
type CameraConfig struct {
	// Source selects the capture source.
	// Options: "ffmpeg", "pattern"
	// Default: "ffmpeg"
	Source string `yaml:"source" toml:"source"`

	// Device is the capture device passed to ffmpeg's -i flag.
	// Example: "/dev/video0", "video=Integrated Camera", "0"
	// Default: "/dev/video0"
	Device string `yaml:"device" toml:"device"`

	// InputFormat is the ffmpeg demuxer for the device.
	// Example: "v4l2", "dshow", "avfoundation"
	// Default: "v4l2"
	InputFormat string `yaml:"input_format" toml:"input_format"`

	// FFmpegPath is the ffmpeg binary used by the ffmpeg source.
	// Default: "ffmpeg"
	FFmpegPath string `yaml:"ffmpeg_path" toml:"ffmpeg_path"`

	// Width is the requested frame width in pixels.
	// Default: 1920
	Width int `yaml:"width" toml:"width"`

	// Height is the requested frame height in pixels.
	// Default: 1080
	Height int `yaml:"height" toml:"height"`

	// FPS is the nominal capture rate. It sizes the retention buffer and
	// the export window; actual capture timing is not guaranteed.
	// Default: 30
	FPS int `yaml:"fps" toml:"fps"`

	// StopTimeout bounds how long a stop waits for the capture loop.
	// Zero waits indefinitely.
	// Default: 10s
	StopTimeout time.Duration `yaml:"stop_timeout" toml:"stop_timeout"`
}

// StorageConfig contains artifact storage configuration.
type StorageConfig struct {
	// FramesDir is the directory holding one artifact per captured frame.
	// Default: "outputFrames"
	FramesDir string `yaml:"frames_dir" toml:"frames_dir"`

	// ArtifactExtension is appended to every artifact key.
	// Default: ".jpg"
	ArtifactExtension string `yaml:"artifact_extension" toml:"artifact_extension"`

	// AuxExtension is appended to the key of the optional secondary track.
	// Default: ".aux"
	AuxExtension string `yaml:"aux_extension" toml:"aux_extension"`

	// ArtifactQuality is the JPEG quality (1-100) for frames that the
	// source delivers unencoded.
	// Default: 80
	ArtifactQuality int `yaml:"artifact_quality" toml:"artifact_quality"`

	// PersistQueueSize is the capacity of the persistence queue.
	// Default: 256
	PersistQueueSize int `yaml:"persist_queue_size" toml:"persist_queue_size"`

	// WriteTimeout is how long capture waits for queue space before the
	// frame's write is dropped.
	// Default: 2s
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`
}

// RetentionConfig contains retention buffer configuration.
type RetentionConfig struct {
	// MaxDurationMinutes is the length of retained history. Together with
	// camera.fps it fixes the buffer capacity (minutes * fps * 60).
	// Default: 30
	MaxDurationMinutes float64 `yaml:"max_duration_minutes" toml:"max_duration_minutes"`

	// SweepSchedule is the cron expression for the orphan sweep.
	// Empty disables scheduled sweeps.
	// Default: "*/10 * * * *"
	SweepSchedule string `yaml:"sweep_schedule" toml:"sweep_schedule"`
}

// ExportConfig contains export pipeline configuration.
type ExportConfig struct {
	// OutputDir is the directory exported videos are written to.
	// Default: "outputVideo"
	OutputDir string `yaml:"output_dir" toml:"output_dir"`

	// Encoder selects the output encoder.
	// Options: "ffmpeg", "mjpeg"
	// Default: "ffmpeg"
	Encoder string `yaml:"encoder" toml:"encoder"`

	// FFmpegPath is the ffmpeg binary used by the ffmpeg encoder.
	// Default: "ffmpeg"
	FFmpegPath string `yaml:"ffmpeg_path" toml:"ffmpeg_path"`

	// Bitrate is the target video bitrate in bits per second.
	// Default: 80000
	Bitrate int `yaml:"bitrate" toml:"bitrate"`

	// OutputQuality is the encoder quality scale (ffmpeg -q:v, 1-31,
	// lower is better). Zero leaves quality to the bitrate.
	// Default: 0
	OutputQuality int `yaml:"output_quality" toml:"output_quality"`

	// QueueSize is the capacity of the reader/writer handoff queue.
	// Default: 64
	QueueSize int `yaml:"queue_size" toml:"queue_size"`

	// DefaultWindowMinutes is used when an export request omits the window.
	// Default: 5
	DefaultWindowMinutes float64 `yaml:"default_window_minutes" toml:"default_window_minutes"`

	// TimeZone names the location used for output file names.
	// Default: "Local"
	TimeZone string `yaml:"time_zone" toml:"time_zone"`

	// CatalogPath is the SQLite database recording export jobs.
	// Empty keeps the catalog in memory.
	// Default: "data/exports.db"
	CatalogPath string `yaml:"catalog_path" toml:"catalog_path"`
}

// ServerConfig contains admin HTTP server configuration.
type ServerConfig struct {
	// Enabled controls whether the admin server is started by "run".
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// ListenAddress is the address the server binds to.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response. Exports
	// run inside the request, so this must cover the longest export.
	// Default: 30m
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" toml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format" toml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source" toml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" toml:"path"`

	// Namespace is the metric name prefix.
	// Default: "dashcam"
	Namespace string `yaml:"namespace" toml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "recorder"
	Subsystem string `yaml:"subsystem" toml:"subsystem"`

	// ExportDurationBuckets defines histogram buckets for export duration (seconds).
	// Default: [0.5, 1, 2.5, 5, 10, 30, 60, 120, 300]
	ExportDurationBuckets []float64 `yaml:"export_duration_buckets" toml:"export_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler" toml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint" toml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "smart-dashcam"
	ServiceName string `yaml:"service_name" toml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure" toml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// RetentionCapacity returns the number of frames the retention buffer holds.
func (c *Config) RetentionCapacity() int {
	return int(c.Retention.MaxDurationMinutes * float64(c.Camera.FPS) * 60)
}

// Location resolves export.time_zone. Unknown names fall back to time.Local.
func (c *ExportConfig) Location() *time.Location {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
