package config

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"unknown source", func(c *Config) { c.Camera.Source = "usb" }, "camera.source"},
		{"ffmpeg without device", func(c *Config) { c.Camera.Device = "" }, "camera.device"},
		{"zero width", func(c *Config) { c.Camera.Width = 0 }, "camera.width"},
		{"negative height", func(c *Config) { c.Camera.Height = -1 }, "camera.height"},
		{"fps too high", func(c *Config) { c.Camera.FPS = 1000 }, "camera.fps"},
		{"extension without dot", func(c *Config) { c.Storage.ArtifactExtension = "jpg" }, "storage.artifact_extension"},
		{"aux equals artifact", func(c *Config) { c.Storage.AuxExtension = c.Storage.ArtifactExtension }, "storage.aux_extension"},
		{"quality out of range", func(c *Config) { c.Storage.ArtifactQuality = 101 }, "storage.artifact_quality"},
		{"zero queue", func(c *Config) { c.Storage.PersistQueueSize = 0 }, "storage.persist_queue_size"},
		{"negative duration", func(c *Config) { c.Retention.MaxDurationMinutes = -1 }, "retention.max_duration_minutes"},
		{"NaN duration", func(c *Config) { c.Retention.MaxDurationMinutes = math.NaN() }, "retention.max_duration_minutes"},
		{"duration below one frame", func(c *Config) {
			c.Camera.FPS = 1
			c.Retention.MaxDurationMinutes = 0.001
		}, "retention.max_duration_minutes"},
		{"bad cron", func(c *Config) { c.Retention.SweepSchedule = "every minute" }, "retention.sweep_schedule"},
		{"unknown encoder", func(c *Config) { c.Export.Encoder = "gif" }, "export.encoder"},
		{"zero bitrate", func(c *Config) { c.Export.Bitrate = 0 }, "export.bitrate"},
		{"output quality", func(c *Config) { c.Export.OutputQuality = 40 }, "export.output_quality"},
		{"unknown zone", func(c *Config) { c.Export.TimeZone = "Mars/Olympus" }, "export.time_zone"},
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "localhost" }, "server.listen_address"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 2 }, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error for field %q", tt.wantField)
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_ServerDisabledSkipsAddress(t *testing.T) {
	cfg := Default()
	cfg.Server.Enabled = false
	cfg.Server.ListenAddress = "not an address"

	if err := Validate(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "camera.fps", Message: "bad"}}}
	if single.Error() != "configuration validation failed: camera.fps: bad" {
		t.Errorf("unexpected message %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "x"},
		{Field: "b", Message: "y"},
	}}
	if !strings.Contains(multi.Error(), "2 errors") {
		t.Errorf("unexpected message %q", multi.Error())
	}

	if (ValidationError{}).Error() != "configuration validation failed" {
		t.Error("empty ValidationError message mismatch")
	}
}
