package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "kouden"}, zap.NewNop())
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zap.NewNop())
	assert.ErrorContains(t, err, "application name")
}

func TestPyroscopeLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := newPyroscopeLogger(zap.New(core))

	l.Infof("uploaded %d profiles", 3)
	l.Debugf("tick")
	l.Errorf("upload failed: %s", "timeout")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "uploaded 3 profiles", entries[0].Message)
	assert.Equal(t, "pyroscope", entries[0].LoggerName)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
}
