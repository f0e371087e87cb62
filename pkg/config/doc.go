// Package config provides configuration management for the dashcam recorder.
//
// This package handles loading, validating, and managing configuration from
// YAML or TOML files with environment variable overrides.
//
// # Configuration Loading
//
//  1. From a file only:
//     cfg, err := config.LoadConfig("dashcam.yaml")
//
//  2. From a file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("dashcam.toml")
//
// Files ending in ".toml" are decoded with BurntSushi/toml; anything else
// is decoded as YAML. Both formats use the same snake_case keys.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention DASHCAM_SECTION_FIELD:
//
//   - DASHCAM_CAMERA_FPS overrides camera.fps
//   - DASHCAM_STORAGE_FRAMES_DIR overrides storage.frames_dir
//   - DASHCAM_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from the configuration file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher observes the configuration file with fsnotify and reloads it
// after a debounce interval. Only fields that are safe to change at
// runtime (currently the logging level) are applied by the recorder; the
// rest take effect on restart.
//
// # Example Configuration
//
//	camera:
//	  source: "ffmpeg"
//	  device: "/dev/video0"
//	  width: 1920
//	  height: 1080
//	  fps: 30
//
//	storage:
//	  frames_dir: "outputFrames"
//	  artifact_quality: 80
//
//	retention:
//	  max_duration_minutes: 30
//
//	export:
//	  output_dir: "outputVideo"
//	  encoder: "ffmpeg"
//	  bitrate: 80000
package config
