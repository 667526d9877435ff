// Package config loads and validates the measurement configuration.
// The schema mirrors the perf tool's YAML keys: per-type record/stat
// settings plus global output and annotation options.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the validated measurement configuration. Durations and enable
// switches are pointers so an explicit zero/false in the file is
// distinguishable from an absent key.
type Config struct {
	OutputDirectory   string `yaml:"output_directory"`
	UsePerfAnnotation bool   `yaml:"use_perf_annotation"`
	FailFast          bool   `yaml:"fail_fast"`
	LogLevel          string `yaml:"log_level"`
	// SafeEventLimit is the multiplex-warning threshold for counting
	// sessions. Zero uses the resolver default.
	SafeEventLimit int `yaml:"safe_event_limit"`

	RecordEnabled *bool    `yaml:"perf_record_enabled"`
	RecordFreq    int      `yaml:"perf_record_frequency"`
	RecordDur     *int     `yaml:"perf_record_duration"`
	RecordEvents  []string `yaml:"perf_record_events"`
	RecordWork    string   `yaml:"perf_record_workload"`
	RecordCpus    string   `yaml:"perf_record_cpu_range"`
	RecordNoSelf  bool     `yaml:"perf_record_exclude_self"`

	StatEnabled *bool    `yaml:"perf_stat_enabled"`
	StatDur     *int     `yaml:"perf_stat_duration"`
	StatDeltas  int      `yaml:"perf_stat_count_deltas"`
	StatEvents  []string `yaml:"perf_stat_events"`
	StatCpus    string   `yaml:"perf_stat_cpu_range"`
	StatPerCpu  bool     `yaml:"perf_stat_all_threads"`
	StatNoSelf  bool     `yaml:"perf_stat_exclude_self"`
	StatWork    string   `yaml:"perf_stat_workload"`
}

// Default returns a fully populated configuration matching the tool's
// historical defaults.
func Default() *Config {
	return &Config{
		OutputDirectory: "tmp/perf_results",
		LogLevel:        "info",

		RecordEnabled: boolPtr(true),
		RecordFreq:    99,
		RecordDur:     intPtr(30),
		RecordEvents:  []string{"cycles"},
		RecordCpus:    "all",

		StatEnabled: boolPtr(true),
		StatDur:     intPtr(10),
		StatDeltas:  1000,
		StatEvents: []string{
			"cycles", "instructions", "branch-misses",
			"L1-dcache-load-misses", "L1-icache-load-misses",
		},
		StatCpus:   "all",
		StatPerCpu: true,
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies PERFPILOT_* environment variables on top of the
// file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PERFPILOT_OUTPUT_DIR"); v != "" {
		c.OutputDirectory = v
	}
	if v := os.Getenv("PERFPILOT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PERFPILOT_FAIL_FAST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.FailFast = b
		}
	}
}

// Validate checks the invariants the resolvers do not cover themselves.
func (c *Config) Validate() error {
	if c.OutputDirectory == "" {
		return fmt.Errorf("output_directory must not be empty")
	}
	if c.RecordFreq <= 0 {
		return fmt.Errorf("perf_record_frequency must be positive, got %d", c.RecordFreq)
	}
	if c.StatDeltas < 0 {
		return fmt.Errorf("perf_stat_count_deltas must not be negative, got %d", c.StatDeltas)
	}
	if !c.RecordOn() && !c.StatOn() {
		return fmt.Errorf("both session types are disabled; nothing to measure")
	}
	return nil
}

// Save writes the effective configuration as YAML, used to persist
// config_used.yaml alongside the run's artifacts.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RecordDuration returns the record duration in seconds, 0 when explicitly unset.
func (c *Config) RecordDuration() int {
	if c.RecordDur == nil {
		return 0
	}
	return *c.RecordDur
}

// StatDuration returns the stat duration in seconds, 0 when explicitly unset.
func (c *Config) StatDuration() int {
	if c.StatDur == nil {
		return 0
	}
	return *c.StatDur
}

// RecordOn reports whether a record session should run.
func (c *Config) RecordOn() bool { return c.RecordEnabled == nil || *c.RecordEnabled }

// StatOn reports whether a stat session should run.
func (c *Config) StatOn() bool { return c.StatEnabled == nil || *c.StatEnabled }

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
