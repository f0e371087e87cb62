package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// process holds the configuration the running recorder was started with.
var process struct {
	once sync.Once
	cfg  atomic.Pointer[Config]
	path atomic.Pointer[string]
}

// Initialize loads the process configuration from path with DASHCAM_*
// overrides applied. An empty path starts from defaults. Only the first
// call loads anything; later calls return nil.
func Initialize(path string) error {
	var err error
	process.once.Do(func() {
		var cfg *Config
		if cfg, err = LoadConfigWithEnvOverrides(path); err != nil {
			return
		}
		store(cfg, path)
	})
	return err
}

// GetConfig returns the process configuration, or nil before Initialize
// succeeds.
func GetConfig() *Config {
	return process.cfg.Load()
}

// SetConfig installs cfg as the process configuration without touching
// the file it was loaded from. Tests use it to skip Initialize.
func SetConfig(cfg *Config) {
	process.cfg.Store(cfg)
}

// LoadedFrom returns the file the process configuration came from, or ""
// when it was built from defaults.
func LoadedFrom() string {
	if p := process.path.Load(); p != nil {
		return *p
	}
	return ""
}

// ReloadConfig re-reads path and, if it loads and validates, makes it the
// process configuration. On failure the running configuration is kept.
// Only the runtime-adjustable fields (currently the log level) take effect
// without a restart; callers apply them from the returned value.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	store(cfg, path)
	return cfg, nil
}

// MustGetConfig is GetConfig for code that cannot run unconfigured.
func MustGetConfig() *Config {
	if cfg := GetConfig(); cfg != nil {
		return cfg
	}
	panic("config: MustGetConfig called before Initialize")
}

func store(cfg *Config, path string) {
	process.cfg.Store(cfg)
	process.path.Store(&path)
}

func resetForTesting() {
	process.cfg.Store(nil)
	process.path.Store(nil)
	process.once = sync.Once{}
}
