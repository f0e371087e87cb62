package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "dashcam.yaml", `
camera:
  source: "pattern"
  width: 640
  height: 480
  fps: 10
  stop_timeout: "3s"

storage:
  frames_dir: "/tmp/frames"
  artifact_quality: 20

retention:
  max_duration_minutes: 2
  sweep_schedule: ""

export:
  encoder: "mjpeg"
  time_zone: "UTC"

server:
  enabled: false

telemetry:
  logging:
    level: "debug"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Camera.Source != "pattern" {
		t.Errorf("expected source %q, got %q", "pattern", cfg.Camera.Source)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 || cfg.Camera.FPS != 10 {
		t.Errorf("unexpected geometry %dx%d@%d", cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	}
	if cfg.Camera.StopTimeout != 3*time.Second {
		t.Errorf("expected stop timeout 3s, got %v", cfg.Camera.StopTimeout)
	}
	if cfg.Storage.ArtifactQuality != 20 {
		t.Errorf("expected artifact quality 20, got %d", cfg.Storage.ArtifactQuality)
	}
	if cfg.Retention.SweepSchedule != "" {
		t.Errorf("expected explicit empty sweep schedule, got %q", cfg.Retention.SweepSchedule)
	}
	if cfg.Server.Enabled {
		t.Error("expected server disabled")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to keep default enabled")
	}
	if cfg.RetentionCapacity() != 2*10*60 {
		t.Errorf("expected capacity 1200, got %d", cfg.RetentionCapacity())
	}
	if cfg.Storage.ArtifactExtension != DefaultArtifactExtension {
		t.Errorf("expected default extension, got %q", cfg.Storage.ArtifactExtension)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "dashcam.toml", `
[camera]
source = "pattern"
fps = 5
stop_timeout = "2s"

[retention]
max_duration_minutes = 1.5

[export]
encoder = "mjpeg"
bitrate = 120000

[telemetry.logging]
level = "warn"
format = "json"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Camera.FPS != 5 {
		t.Errorf("expected fps 5, got %d", cfg.Camera.FPS)
	}
	if cfg.Camera.StopTimeout != 2*time.Second {
		t.Errorf("expected stop timeout 2s, got %v", cfg.Camera.StopTimeout)
	}
	if cfg.Retention.MaxDurationMinutes != 1.5 {
		t.Errorf("expected max duration 1.5, got %v", cfg.Retention.MaxDurationMinutes)
	}
	if cfg.Export.Bitrate != 120000 {
		t.Errorf("expected bitrate 120000, got %d", cfg.Export.Bitrate)
	}
	if cfg.Telemetry.Logging.Level != "warn" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Telemetry.Logging)
	}
	if cfg.Camera.Width != DefaultCameraWidth {
		t.Errorf("expected default width, got %d", cfg.Camera.Width)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "camera: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeFile(t, "invalid.yaml", `
camera:
  fps: -1
export:
  encoder: "gif"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	if _, err := Parse([]byte(""), "ini"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeFile(t, "dashcam.yaml", `
camera:
  source: "pattern"
  fps: 10
`)

	t.Setenv("DASHCAM_CAMERA_FPS", "25")
	t.Setenv("DASHCAM_STORAGE_FRAMES_DIR", "/data/frames")
	t.Setenv("DASHCAM_RETENTION_MAX_DURATION_MINUTES", "12.5")
	t.Setenv("DASHCAM_SERVER_ENABLED", "false")
	t.Setenv("DASHCAM_CAMERA_STOP_TIMEOUT", "500ms")
	t.Setenv("DASHCAM_EXPORT_BITRATE", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Camera.FPS != 25 {
		t.Errorf("expected fps 25, got %d", cfg.Camera.FPS)
	}
	if cfg.Storage.FramesDir != "/data/frames" {
		t.Errorf("expected frames dir override, got %q", cfg.Storage.FramesDir)
	}
	if cfg.Retention.MaxDurationMinutes != 12.5 {
		t.Errorf("expected max duration 12.5, got %v", cfg.Retention.MaxDurationMinutes)
	}
	if cfg.Server.Enabled {
		t.Error("expected server disabled by env")
	}
	if cfg.Camera.StopTimeout != 500*time.Millisecond {
		t.Errorf("expected stop timeout 500ms, got %v", cfg.Camera.StopTimeout)
	}
	if cfg.Export.Bitrate != DefaultBitrate {
		t.Errorf("malformed override should be ignored, got bitrate %d", cfg.Export.Bitrate)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("DASHCAM_CAMERA_SOURCE", "pattern")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Camera.Source != "pattern" {
		t.Errorf("expected source pattern, got %q", cfg.Camera.Source)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("DASHCAM_TELEMETRY_LOGGING_LEVEL", "verbose")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error: %v", err)
	}
}
