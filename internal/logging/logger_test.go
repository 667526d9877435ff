package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestNew_DefaultLevel(t *testing.T) {
	log := New(Config{Output: &bytes.Buffer{}, Pretty: boolPtr(false)})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNew_ParsesLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		log := New(Config{Level: tt.level, Output: &bytes.Buffer{}, Pretty: boolPtr(false)})
		assert.Equal(t, tt.want, log.GetLevel(), tt.level)
	}
}

func TestNew_StructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf, Pretty: boolPtr(false)})

	log.Info().Str("session", "1").Msg("session running")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session running", entry["message"])
	assert.Equal(t, "1", entry["session"])
	assert.NotEmpty(t, entry["time"])
}

func TestNewWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithComponent(Config{Output: &buf, Pretty: boolPtr(false)}, "scheduler")

	log.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scheduler", entry["component"])
}

func TestNew_NonFileOutputIsNotPretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}) // Pretty unset, buffer is not a TTY

	log.Info().Msg("plain")

	var entry map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
}
