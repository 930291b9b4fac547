// Package config loads gridkit settings from layered YAML files:
// built-in defaults, then the user config dir, then the project file in
// the working directory. Later layers override earlier ones field by
// field; a missing file is not an error.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const projectFile = "gridkit.yaml"

// DispatcherConfig tunes batch coalescing. Durations are milliseconds in
// the file.
type DispatcherConfig struct {
	DebounceMS       int `yaml:"debounce_ms"`
	MaxBatch         int `yaml:"max_batch"`
	RequestTimeoutMS int `yaml:"request_timeout_ms"`
	SweepIntervalMS  int `yaml:"sweep_interval_ms"`
}

// OrchestratorConfig tunes plan execution pacing.
type OrchestratorConfig struct {
	TaskDelayMS       int `yaml:"task_delay_ms"`
	StreamCellDelayMS int `yaml:"stream_cell_delay_ms"`
}

// AnalysisConfig extends the prompt vocabulary. Keys are canonical sheet
// names or theme names; values are extra keywords that trigger them.
type AnalysisConfig struct {
	SheetKeywords map[string][]string `yaml:"sheet_keywords,omitempty"`
	ThemeKeywords map[string][]string `yaml:"theme_keywords,omitempty"`
}

type Config struct {
	Dispatcher   DispatcherConfig   `yaml:"dispatcher"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Analysis     AnalysisConfig     `yaml:"analysis"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Dispatcher: DispatcherConfig{
			DebounceMS:       30,
			MaxBatch:         25,
			RequestTimeoutMS: 10_000,
			SweepIntervalMS:  1_000,
		},
		Orchestrator: OrchestratorConfig{
			TaskDelayMS:       0,
			StreamCellDelayMS: 0,
		},
	}
}

// TaskDelay returns the configured pacing as a duration.
func (c OrchestratorConfig) TaskDelay() time.Duration {
	return time.Duration(c.TaskDelayMS) * time.Millisecond
}

// StreamCellDelay returns the configured per-cell pacing as a duration.
func (c OrchestratorConfig) StreamCellDelay() time.Duration {
	return time.Duration(c.StreamCellDelayMS) * time.Millisecond
}

// Debounce returns the configured debounce window as a duration.
func (c DispatcherConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// RequestTimeout returns the configured request ceiling as a duration.
func (c DispatcherConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// SweepInterval returns the configured sweep cadence as a duration.
func (c DispatcherConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMS) * time.Millisecond
}

func dir() (string, error) {
	if v := os.Getenv("GRIDKIT_CONFIG_DIR"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "gridkit"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gridkit"), nil
}

func userFilePath() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load resolves the effective configuration: defaults, overlaid with the
// user file, overlaid with the project file. Unreadable layers are
// logged and skipped rather than failing the load.
func Load() Config {
	cfg := Default()
	if p, err := userFilePath(); err == nil {
		cfg.mergeFile(p)
	}
	cfg.mergeFile(projectFile)
	return cfg
}

func (c *Config) mergeFile(path string) {
	layer, err := readFile(path)
	if err != nil {
		slog.Warn("skipping config layer", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if layer == nil {
		return
	}
	c.merge(*layer)
}

// readFile parses one layer. A missing file returns (nil, nil).
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// merge overlays set fields of layer onto c. Zero means "not set" for
// every numeric knob, so a layer cannot explicitly zero a default; use a
// small value like 1ms instead.
func (c *Config) merge(layer Config) {
	if layer.Dispatcher.DebounceMS > 0 {
		c.Dispatcher.DebounceMS = layer.Dispatcher.DebounceMS
	}
	if layer.Dispatcher.MaxBatch > 0 {
		c.Dispatcher.MaxBatch = layer.Dispatcher.MaxBatch
	}
	if layer.Dispatcher.RequestTimeoutMS > 0 {
		c.Dispatcher.RequestTimeoutMS = layer.Dispatcher.RequestTimeoutMS
	}
	if layer.Dispatcher.SweepIntervalMS > 0 {
		c.Dispatcher.SweepIntervalMS = layer.Dispatcher.SweepIntervalMS
	}
	if layer.Orchestrator.TaskDelayMS > 0 {
		c.Orchestrator.TaskDelayMS = layer.Orchestrator.TaskDelayMS
	}
	if layer.Orchestrator.StreamCellDelayMS > 0 {
		c.Orchestrator.StreamCellDelayMS = layer.Orchestrator.StreamCellDelayMS
	}
	for name, kw := range layer.Analysis.SheetKeywords {
		if c.Analysis.SheetKeywords == nil {
			c.Analysis.SheetKeywords = make(map[string][]string)
		}
		c.Analysis.SheetKeywords[name] = append(c.Analysis.SheetKeywords[name], kw...)
	}
	for name, kw := range layer.Analysis.ThemeKeywords {
		if c.Analysis.ThemeKeywords == nil {
			c.Analysis.ThemeKeywords = make(map[string][]string)
		}
		c.Analysis.ThemeKeywords[name] = append(c.Analysis.ThemeKeywords[name], kw...)
	}
}

// Save writes the config to the user file atomically using a temp file +
// rename.
func Save(cfg Config) error {
	p, err := userFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	// Remove dest first for Windows compat (os.Rename fails if dest exists on Windows).
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
