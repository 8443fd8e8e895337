// Package config handles fengari.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/d9k/fengari/vm"

	_ "github.com/tliron/commonlog/simple"
)

// Config represents a fengari.toml runtime configuration.
type Config struct {
	Collector Collector `toml:"collector"`
	Log       Log       `toml:"log"`

	// Dir is the directory containing the fengari.toml file (set at load time).
	Dir string `toml:"-"`
}

// Collector configures the dead-key collector.
type Collector struct {
	// Background starts the periodic sweep goroutine. Off by default:
	// single-threaded embedders sweep explicitly between operations.
	Background bool `toml:"background"`

	// IntervalSeconds is the periodic sweep interval. Zero selects the
	// collector's default.
	IntervalSeconds int `toml:"interval-seconds"`
}

// Log configures logging verbosity for the commonlog backend.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no fengari.toml exists.
func Default() *Config {
	return &Config{}
}

// Load parses a fengari.toml file from the given directory.
// Returns (nil, nil) if the directory has no fengari.toml.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "fengari.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if c.Collector.IntervalSeconds < 0 {
		return nil, fmt.Errorf("%s: collector interval-seconds must not be negative", path)
	}

	return &c, nil
}

// Apply wires the configuration into the logging backend.
func (c *Config) Apply() {
	commonlog.Configure(c.Log.Verbosity, nil)
}

// Options translates the configuration into runtime options.
func (c *Config) Options() vm.Options {
	return vm.Options{
		SweepInterval:  time.Duration(c.Collector.IntervalSeconds) * time.Second,
		StartCollector: c.Collector.Background,
	}
}
