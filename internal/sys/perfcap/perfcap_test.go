package perfcap

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemWideAllowed(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root; paranoid level is bypassed")
	}

	tests := []struct {
		level   int
		allowed bool
	}{
		{-1, true},
		{0, true},
		{1, false},
		{2, false},
		{3, false},
	}

	for _, tt := range tests {
		caps := Capabilities{ParanoidLevel: tt.level}
		assert.Equal(t, tt.allowed, caps.SystemWideAllowed(), "level %d", tt.level)
	}
}

func TestKernelVersion(t *testing.T) {
	// Reads the real /proc/version; on non-Linux hosts it degrades to "unknown".
	version := kernelVersion()
	assert.NotEmpty(t, version)
}
