package bridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchTransportReportsDroppedAvatar(t *testing.T) {
	dir := t.TempDir()
	h := newRecordingHandler()
	tr, err := NewWatchTransport(dir, h, WithSettle(20*time.Millisecond))
	require.NoError(t, err)
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- tr.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "avatar.GLB"), []byte("glTF"), 0o644))

	assert.Equal(t, filepath.Join(tr.Dir(), "avatar.GLB"), h.wait(t, 2*time.Second))

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, h.URLs(), 1)

	cancel()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchTransportMissingDir(t *testing.T) {
	_, err := NewWatchTransport(filepath.Join(t.TempDir(), "missing"), newRecordingHandler())

	assert.Error(t, err)
}

func TestIsAvatarFile(t *testing.T) {
	assert.True(t, isAvatarFile("a.glb"))
	assert.True(t, isAvatarFile("dir/a.GLTF"))
	assert.False(t, isAvatarFile("a.bin"))
	assert.False(t, isAvatarFile("glb"))
}
