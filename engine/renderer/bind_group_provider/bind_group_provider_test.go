package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBindGroupProviderStagesData(t *testing.T) {
	p := NewBindGroupProvider("mesh0",
		WithVertexData(make([]byte, 48)),
		WithIndexData(make([]byte, 12), 3),
	)

	assert.Equal(t, "mesh0", p.Label())
	assert.Len(t, p.VertexData(), 48)
	assert.Equal(t, 3, p.IndexCount())
	assert.Equal(t, 60, p.StagedBytes())
	assert.False(t, p.Uploaded())
	assert.False(t, p.Released())
}

func TestReleaseIsIdempotent(t *testing.T) {
	p := NewBindGroupProvider("mesh0", WithVertexData([]byte{1, 2, 3}))

	p.Release()
	p.Release()

	assert.True(t, p.Released())
	assert.Nil(t, p.VertexData())
	assert.Zero(t, p.StagedBytes())
}

func TestUploadWithoutDeviceIsNoop(t *testing.T) {
	p := NewBindGroupProvider("mesh0", WithVertexData([]byte{1, 2, 3}))

	require.NoError(t, p.Upload(nil))
	assert.False(t, p.Uploaded())
}

func TestUploadAfterReleaseFails(t *testing.T) {
	p := NewBindGroupProvider("mesh0")
	p.Release()

	assert.ErrorIs(t, p.Upload(nil), ErrReleased)
}
