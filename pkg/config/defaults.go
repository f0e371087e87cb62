package config

import "time"

// Default values for configuration fields.
const (
	// Camera defaults
	DefaultCameraSource      = "ffmpeg"
	DefaultCameraDevice      = "/dev/video0"
	DefaultCameraInputFormat = "v4l2"
	DefaultFFmpegPath        = "ffmpeg"
	DefaultCameraWidth       = 1920
	DefaultCameraHeight      = 1080
	DefaultCameraFPS         = 30
	DefaultCameraStopTimeout = 10 * time.Second

	// Storage defaults
	DefaultFramesDir         = "outputFrames"
	DefaultArtifactExtension = ".jpg"
	DefaultAuxExtension      = ".aux"
	DefaultArtifactQuality   = 80
	DefaultPersistQueueSize  = 256
	DefaultWriteTimeout      = 2 * time.Second

	// Retention defaults
	DefaultMaxDurationMinutes = 30.0
	DefaultSweepSchedule      = "*/10 * * * *"

	// Export defaults
	DefaultOutputDir       = "outputVideo"
	DefaultExportEncoder   = "ffmpeg"
	DefaultBitrate         = 80000
	DefaultExportQueueSize = 64
	DefaultWindowMinutes   = 5.0
	DefaultTimeZone        = "Local"
	DefaultCatalogPath     = "data/exports.db"

	// Server defaults
	DefaultServerEnabled         = true
	DefaultServerListenAddress   = "127.0.0.1:8090"
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Minute
	DefaultServerShutdownTimeout = 15 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "dashcam"
	DefaultMetricsSubsystem   = "recorder"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "smart-dashcam"
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultExportDurationBuckets are the export duration histogram buckets.
var DefaultExportDurationBuckets = []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Default returns a configuration with every field set to its default.
// Loaders decode files on top of it, so fields where the zero value is
// meaningful (booleans, an empty sweep schedule, an empty catalog path)
// keep their defaults only when a file omits them.
func Default() *Config {
	cfg := &Config{
		Retention: RetentionConfig{
			SweepSchedule: DefaultSweepSchedule,
		},
		Export: ExportConfig{
			CatalogPath: DefaultCatalogPath,
		},
		Server: ServerConfig{
			Enabled: DefaultServerEnabled,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{
				Enabled:     DefaultTracingEnabled,
				Insecure:    DefaultTracingInsecure,
				SampleRatio: DefaultTracingSampleRatio,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Camera defaults
	if cfg.Camera.Source == "" {
		cfg.Camera.Source = DefaultCameraSource
	}
	if cfg.Camera.Device == "" {
		cfg.Camera.Device = DefaultCameraDevice
	}
	if cfg.Camera.InputFormat == "" {
		cfg.Camera.InputFormat = DefaultCameraInputFormat
	}
	if cfg.Camera.FFmpegPath == "" {
		cfg.Camera.FFmpegPath = DefaultFFmpegPath
	}
	if cfg.Camera.Width == 0 {
		cfg.Camera.Width = DefaultCameraWidth
	}
	if cfg.Camera.Height == 0 {
		cfg.Camera.Height = DefaultCameraHeight
	}
	if cfg.Camera.FPS == 0 {
		cfg.Camera.FPS = DefaultCameraFPS
	}
	if cfg.Camera.StopTimeout == 0 {
		cfg.Camera.StopTimeout = DefaultCameraStopTimeout
	}

	// Storage defaults
	if cfg.Storage.FramesDir == "" {
		cfg.Storage.FramesDir = DefaultFramesDir
	}
	if cfg.Storage.ArtifactExtension == "" {
		cfg.Storage.ArtifactExtension = DefaultArtifactExtension
	}
	if cfg.Storage.AuxExtension == "" {
		cfg.Storage.AuxExtension = DefaultAuxExtension
	}
	if cfg.Storage.ArtifactQuality == 0 {
		cfg.Storage.ArtifactQuality = DefaultArtifactQuality
	}
	if cfg.Storage.PersistQueueSize == 0 {
		cfg.Storage.PersistQueueSize = DefaultPersistQueueSize
	}
	if cfg.Storage.WriteTimeout == 0 {
		cfg.Storage.WriteTimeout = DefaultWriteTimeout
	}

	// Retention defaults
	if cfg.Retention.MaxDurationMinutes == 0 {
		cfg.Retention.MaxDurationMinutes = DefaultMaxDurationMinutes
	}

	// Export defaults
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = DefaultOutputDir
	}
	if cfg.Export.Encoder == "" {
		cfg.Export.Encoder = DefaultExportEncoder
	}
	if cfg.Export.FFmpegPath == "" {
		cfg.Export.FFmpegPath = DefaultFFmpegPath
	}
	if cfg.Export.Bitrate == 0 {
		cfg.Export.Bitrate = DefaultBitrate
	}
	if cfg.Export.QueueSize == 0 {
		cfg.Export.QueueSize = DefaultExportQueueSize
	}
	if cfg.Export.DefaultWindowMinutes == 0 {
		cfg.Export.DefaultWindowMinutes = DefaultWindowMinutes
	}
	if cfg.Export.TimeZone == "" {
		cfg.Export.TimeZone = DefaultTimeZone
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultServerListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.ExportDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.ExportDurationBuckets = append([]float64(nil), DefaultExportDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
