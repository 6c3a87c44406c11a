package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsAfterInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(slog.New(slog.NewTextHandler(&buf, nil)), time.Hour)

	assert.False(t, p.Tick())
	assert.Zero(t, p.FPS())
	assert.Empty(t, buf.String())

	p.lastTime = time.Now().Add(-2 * time.Hour)
	assert.True(t, p.Tick())
	assert.Greater(t, p.FPS(), 0.0)
	assert.Contains(t, buf.String(), "msg=profiler")
	assert.Contains(t, buf.String(), "fps=")
	assert.Equal(t, 0, p.frameCount)
}

func TestNewProfilerDefaults(t *testing.T) {
	p := NewProfiler(nil, 0)

	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.logger)
}
