package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSurfaceOpenCloseIdempotent(t *testing.T) {
	for _, guarded := range []bool{false, true} {
		s := NewSurface(guarded)
		assert.False(t, s.Visible())
		assert.True(t, s.OpenEnabled())

		s.Open()
		visible, enabled := s.Visible(), s.OpenEnabled()
		s.Open()
		assert.Equal(t, visible, s.Visible())
		assert.Equal(t, enabled, s.OpenEnabled())
		assert.True(t, s.Visible())

		s.Close()
		s.Close()
		assert.False(t, s.Visible())
		assert.True(t, s.OpenEnabled())
	}
}

func TestGuardedSurfaceDisablesOpenControl(t *testing.T) {
	s := NewSurface(true)
	s.Open()

	assert.True(t, s.Guarded())
	assert.False(t, s.OpenEnabled())
}

func TestUnguardedSurfaceKeepsOpenControl(t *testing.T) {
	s := NewSurface(false)
	s.Open()

	assert.False(t, s.Guarded())
	assert.True(t, s.OpenEnabled())
}
