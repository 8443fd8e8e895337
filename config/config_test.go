package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fengari.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("writing fengari.toml: %v", err)
	}
	return dir
}

func TestLoadFullConfig(t *testing.T) {
	dir := writeConfig(t, `
[collector]
background = true
interval-seconds = 5

[log]
verbosity = 2
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c == nil {
		t.Fatal("Load returned nil config")
	}
	if !c.Collector.Background {
		t.Error("collector.background: got false, want true")
	}
	if c.Collector.IntervalSeconds != 5 {
		t.Errorf("collector.interval-seconds: got %d, want 5", c.Collector.IntervalSeconds)
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("log.verbosity: got %d, want 2", c.Log.Verbosity)
	}
	if c.Dir == "" {
		t.Error("Dir should be set at load time")
	}
}

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != nil {
		t.Error("expected nil config when no fengari.toml exists")
	}
}

func TestLoadRejectsNegativeInterval(t *testing.T) {
	dir := writeConfig(t, `
[collector]
interval-seconds = -1
`)
	if _, err := Load(dir); err == nil {
		t.Error("negative interval should be rejected")
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	dir := writeConfig(t, `[collector`)
	if _, err := Load(dir); err == nil {
		t.Error("malformed toml should be rejected")
	}
}

func TestOptionsTranslation(t *testing.T) {
	c := &Config{}
	c.Collector.Background = true
	c.Collector.IntervalSeconds = 7

	opts := c.Options()
	if !opts.StartCollector {
		t.Error("StartCollector: got false, want true")
	}
	if opts.SweepInterval != 7*time.Second {
		t.Errorf("SweepInterval: got %s, want 7s", opts.SweepInterval)
	}
}

func TestDefaultConfig(t *testing.T) {
	c := Default()
	opts := c.Options()
	if opts.StartCollector {
		t.Error("default should not start the background collector")
	}
	if opts.SweepInterval != 0 {
		t.Errorf("default sweep interval: got %s, want 0 (collector default)", opts.SweepInterval)
	}
}
