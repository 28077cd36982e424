// Package config loads server settings.
//
// Everything has a working default; a config file is optional. The debounce
// window is deliberately configuration rather than a constant: clients only
// need some bounded latency between an edit and analysis pickup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDebounceMillis = 300
	maxDebounceMillis     = 5000
)

// Config are the tunable server settings.
type Config struct {
	// DebounceMillis is the coalescing window between an edit and the
	// analysis worker picking it up, in milliseconds.
	DebounceMillis int `yaml:"debounce_ms"`
	// LogFile receives the server log in addition to stderr.
	LogFile string `yaml:"log_file"`
	// Verbosity is the commonlog verbosity level.
	Verbosity int `yaml:"verbosity"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DebounceMillis: defaultDebounceMillis,
		LogFile:        filepath.Join(os.TempDir(), "jsastad", "jsastad.log"),
		Verbosity:      1,
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.clamp(), nil
}

func (c Config) clamp() Config {
	if c.DebounceMillis < 0 {
		c.DebounceMillis = 0
	}
	if c.DebounceMillis > maxDebounceMillis {
		c.DebounceMillis = maxDebounceMillis
	}
	if c.Verbosity < 0 {
		c.Verbosity = 0
	}
	return c
}

// Debounce returns the debounce window as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}
