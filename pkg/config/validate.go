package config

import (
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "camera.fps").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateCamera(&cfg.Camera)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateRetention(cfg)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateCamera validates capture source configuration.
func validateCamera(cfg *CameraConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case "ffmpeg":
		if cfg.Device == "" {
			errs = append(errs, FieldError{
				Field:   "camera.device",
				Message: "device is required for the ffmpeg source",
			})
		}
		if cfg.FFmpegPath == "" {
			errs = append(errs, FieldError{
				Field:   "camera.ffmpeg_path",
				Message: "ffmpeg path is required for the ffmpeg source",
			})
		}
	case "pattern":
	default:
		errs = append(errs, FieldError{
			Field:   "camera.source",
			Message: fmt.Sprintf("invalid source %q: must be 'ffmpeg' or 'pattern'", cfg.Source),
		})
	}

	if cfg.Width <= 0 {
		errs = append(errs, FieldError{
			Field:   "camera.width",
			Message: fmt.Sprintf("width must be positive, got %d", cfg.Width),
		})
	}
	if cfg.Height <= 0 {
		errs = append(errs, FieldError{
			Field:   "camera.height",
			Message: fmt.Sprintf("height must be positive, got %d", cfg.Height),
		})
	}
	if cfg.FPS <= 0 || cfg.FPS > 240 {
		errs = append(errs, FieldError{
			Field:   "camera.fps",
			Message: fmt.Sprintf("fps must be between 1 and 240, got %d", cfg.FPS),
		})
	}
	if cfg.StopTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "camera.stop_timeout",
			Message: "stop timeout must not be negative",
		})
	}

	return errs
}

// validateStorage validates artifact storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if cfg.FramesDir == "" {
		errs = append(errs, FieldError{
			Field:   "storage.frames_dir",
			Message: "frames directory is required",
		})
	}
	if !strings.HasPrefix(cfg.ArtifactExtension, ".") {
		errs = append(errs, FieldError{
			Field:   "storage.artifact_extension",
			Message: fmt.Sprintf("extension %q must start with '.'", cfg.ArtifactExtension),
		})
	}
	if !strings.HasPrefix(cfg.AuxExtension, ".") {
		errs = append(errs, FieldError{
			Field:   "storage.aux_extension",
			Message: fmt.Sprintf("extension %q must start with '.'", cfg.AuxExtension),
		})
	} else if cfg.AuxExtension == cfg.ArtifactExtension {
		errs = append(errs, FieldError{
			Field:   "storage.aux_extension",
			Message: "aux extension must differ from the artifact extension",
		})
	}
	if cfg.ArtifactQuality < 1 || cfg.ArtifactQuality > 100 {
		errs = append(errs, FieldError{
			Field:   "storage.artifact_quality",
			Message: fmt.Sprintf("artifact quality must be between 1 and 100, got %d", cfg.ArtifactQuality),
		})
	}
	if cfg.PersistQueueSize < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.persist_queue_size",
			Message: "persist queue size must be at least 1",
		})
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "storage.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	return errs
}

// validateRetention validates retention configuration. It needs the camera
// frame rate to check the derived capacity.
func validateRetention(cfg *Config) []FieldError {
	var errs []FieldError

	minutes := cfg.Retention.MaxDurationMinutes
	if math.IsNaN(minutes) || minutes <= 0 {
		errs = append(errs, FieldError{
			Field:   "retention.max_duration_minutes",
			Message: fmt.Sprintf("max duration must be positive, got %v", minutes),
		})
	} else if cfg.Camera.FPS > 0 && cfg.RetentionCapacity() < 1 {
		errs = append(errs, FieldError{
			Field:   "retention.max_duration_minutes",
			Message: "max duration is too short to hold a single frame",
		})
	}

	if cfg.Retention.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.SweepSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.sweep_schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Retention.SweepSchedule, err),
			})
		}
	}

	return errs
}

// validateExport validates export configuration.
func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	if cfg.OutputDir == "" {
		errs = append(errs, FieldError{
			Field:   "export.output_dir",
			Message: "output directory is required",
		})
	}

	switch cfg.Encoder {
	case "ffmpeg":
		if cfg.FFmpegPath == "" {
			errs = append(errs, FieldError{
				Field:   "export.ffmpeg_path",
				Message: "ffmpeg path is required for the ffmpeg encoder",
			})
		}
	case "mjpeg":
	default:
		errs = append(errs, FieldError{
			Field:   "export.encoder",
			Message: fmt.Sprintf("invalid encoder %q: must be 'ffmpeg' or 'mjpeg'", cfg.Encoder),
		})
	}

	if cfg.Bitrate <= 0 {
		errs = append(errs, FieldError{
			Field:   "export.bitrate",
			Message: fmt.Sprintf("bitrate must be positive, got %d", cfg.Bitrate),
		})
	}
	if cfg.OutputQuality < 0 || cfg.OutputQuality > 31 {
		errs = append(errs, FieldError{
			Field:   "export.output_quality",
			Message: fmt.Sprintf("output quality must be between 0 and 31, got %d", cfg.OutputQuality),
		})
	}
	if cfg.QueueSize < 1 {
		errs = append(errs, FieldError{
			Field:   "export.queue_size",
			Message: "queue size must be at least 1",
		})
	}
	if math.IsNaN(cfg.DefaultWindowMinutes) || cfg.DefaultWindowMinutes <= 0 {
		errs = append(errs, FieldError{
			Field:   "export.default_window_minutes",
			Message: "default window must be positive",
		})
	}
	if cfg.TimeZone != "" && cfg.TimeZone != "Local" {
		if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
			errs = append(errs, FieldError{
				Field:   "export.time_zone",
				Message: fmt.Sprintf("unknown time zone %q", cfg.TimeZone),
			})
		}
	}

	return errs
}

// validateServer validates admin server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server",
			Message: "timeouts must not be negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
