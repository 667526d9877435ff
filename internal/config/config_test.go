package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "output_directory: /tmp/results\n"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/results", cfg.OutputDirectory)
	assert.Equal(t, 99, cfg.RecordFreq)
	assert.Equal(t, 30, cfg.RecordDuration())
	assert.Equal(t, []string{"cycles"}, cfg.RecordEvents)
	assert.Equal(t, 10, cfg.StatDuration())
	assert.Equal(t, 1000, cfg.StatDeltas)
	assert.Equal(t, "all", cfg.StatCpus)
	assert.True(t, cfg.StatPerCpu)
	assert.True(t, cfg.RecordOn())
	assert.True(t, cfg.StatOn())
	assert.False(t, cfg.UsePerfAnnotation)
}

func TestLoad_ExplicitZeroDurationIsUnset(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
perf_record_duration: 0
perf_record_workload: bench futex hash
`))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.RecordDuration(), "explicit zero must not fall back to the default")
	assert.Equal(t, "bench futex hash", cfg.RecordWork)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
output_directory: /data/perf
perf_record_frequency: 499
perf_record_duration: 120
perf_stat_events: [cycles, instructions]
perf_stat_cpu_range: 0-3
perf_stat_enabled: false
use_perf_annotation: true
`))
	require.NoError(t, err)

	assert.Equal(t, 499, cfg.RecordFreq)
	assert.Equal(t, 120, cfg.RecordDuration())
	assert.Equal(t, []string{"cycles", "instructions"}, cfg.StatEvents)
	assert.Equal(t, "0-3", cfg.StatCpus)
	assert.False(t, cfg.StatOn())
	assert.True(t, cfg.UsePerfAnnotation)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PERFPILOT_OUTPUT_DIR", "/env/override")
	t.Setenv("PERFPILOT_FAIL_FAST", "true")

	cfg, err := Load(writeConfig(t, "output_directory: /file/value\n"))
	require.NoError(t, err)

	assert.Equal(t, "/env/override", cfg.OutputDirectory)
	assert.True(t, cfg.FailFast)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYaml(t *testing.T) {
	_, err := Load(writeConfig(t, "output_directory: [unclosed\n"))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"empty output directory",
			func(c *Config) { c.OutputDirectory = "" },
			"output_directory",
		},
		{
			"zero frequency",
			func(c *Config) { c.RecordFreq = 0 },
			"perf_record_frequency",
		},
		{
			"negative deltas",
			func(c *Config) { c.StatDeltas = -5 },
			"perf_stat_count_deltas",
		},
		{
			"nothing enabled",
			func(c *Config) {
				c.RecordEnabled = boolPtr(false)
				c.StatEnabled = boolPtr(false)
			},
			"nothing to measure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.OutputDirectory = "/data/perf"
	cfg.RecordEvents = []string{"cycles", "cache-misses"}

	path := filepath.Join(t.TempDir(), "config_used.yaml")
	require.NoError(t, cfg.Save(path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.OutputDirectory, reloaded.OutputDirectory)
	assert.Equal(t, cfg.RecordEvents, reloaded.RecordEvents)
	assert.Equal(t, cfg.StatDuration(), reloaded.StatDuration())
}
