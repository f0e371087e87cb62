package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "DASHCAM_"

// LoadConfig loads configuration from a YAML or TOML file at the specified
// path. Files ending in ".toml" are decoded as TOML, everything else as YAML.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes configuration data in the given format ("yaml" or "toml")
// on top of the defaults.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()

	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, err
		}
	case "yaml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", format)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a file and applies
// environment variable overrides. Environment variables follow the naming
// convention DASHCAM_SECTION_FIELD (e.g., DASHCAM_CAMERA_FPS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from defaults.
//
// The loading sequence is:
// 1. Load YAML or TOML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric or duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Camera overrides
	envString("CAMERA_SOURCE", &cfg.Camera.Source)
	envString("CAMERA_DEVICE", &cfg.Camera.Device)
	envString("CAMERA_INPUT_FORMAT", &cfg.Camera.InputFormat)
	envString("CAMERA_FFMPEG_PATH", &cfg.Camera.FFmpegPath)
	envInt("CAMERA_WIDTH", &cfg.Camera.Width)
	envInt("CAMERA_HEIGHT", &cfg.Camera.Height)
	envInt("CAMERA_FPS", &cfg.Camera.FPS)
	envDuration("CAMERA_STOP_TIMEOUT", &cfg.Camera.StopTimeout)

	// Storage overrides
	envString("STORAGE_FRAMES_DIR", &cfg.Storage.FramesDir)
	envString("STORAGE_ARTIFACT_EXTENSION", &cfg.Storage.ArtifactExtension)
	envString("STORAGE_AUX_EXTENSION", &cfg.Storage.AuxExtension)
	envInt("STORAGE_ARTIFACT_QUALITY", &cfg.Storage.ArtifactQuality)
	envInt("STORAGE_PERSIST_QUEUE_SIZE", &cfg.Storage.PersistQueueSize)
	envDuration("STORAGE_WRITE_TIMEOUT", &cfg.Storage.WriteTimeout)

	// Retention overrides
	envFloat("RETENTION_MAX_DURATION_MINUTES", &cfg.Retention.MaxDurationMinutes)
	if val, ok := os.LookupEnv(EnvPrefix + "RETENTION_SWEEP_SCHEDULE"); ok {
		cfg.Retention.SweepSchedule = val
	}

	// Export overrides
	envString("EXPORT_OUTPUT_DIR", &cfg.Export.OutputDir)
	envString("EXPORT_ENCODER", &cfg.Export.Encoder)
	envString("EXPORT_FFMPEG_PATH", &cfg.Export.FFmpegPath)
	envInt("EXPORT_BITRATE", &cfg.Export.Bitrate)
	envInt("EXPORT_OUTPUT_QUALITY", &cfg.Export.OutputQuality)
	envInt("EXPORT_QUEUE_SIZE", &cfg.Export.QueueSize)
	envFloat("EXPORT_DEFAULT_WINDOW_MINUTES", &cfg.Export.DefaultWindowMinutes)
	envString("EXPORT_TIME_ZONE", &cfg.Export.TimeZone)
	if val, ok := os.LookupEnv(EnvPrefix + "EXPORT_CATALOG_PATH"); ok {
		cfg.Export.CatalogPath = val
	}

	// Server overrides
	envBool("SERVER_ENABLED", &cfg.Server.Enabled)
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envString("TELEMETRY_TRACING_SERVICE_NAME", &cfg.Telemetry.Tracing.ServiceName)
	envBool("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
