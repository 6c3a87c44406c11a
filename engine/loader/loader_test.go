package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-avatar/engine/loader/loadertest"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDataURI(t *testing.T) {
	l := NewLoader()

	m, err := l.Load(context.Background(), loadertest.DataURI(loadertest.Avatar("Armature", "Hips", "Spine")))
	require.NoError(t, err)

	assert.Equal(t, "inline", m.Name())
	assert.Equal(t, "inline", m.Root().Name())
	require.NotNil(t, m.Root().Find("Armature"))
	require.NotNil(t, m.Root().Find("Spine"))
	assert.Equal(t, "Hips", m.Root().Find("Spine").Parent().Name())

	require.Len(t, m.Providers(), 1)
	p := m.Providers()[0]
	assert.Equal(t, "Body/BodyMesh", p.Label())
	assert.Equal(t, 3, p.IndexCount())
	assert.Equal(t, 3*model.GPUVertexSize+3*4, p.StagedBytes())
	assert.False(t, p.Uploaded())
}

func TestLoadGLB(t *testing.T) {
	l := NewLoader()

	m, err := l.Load(context.Background(), loadertest.DataURI(loadertest.GLB(loadertest.Avatar("Armature", "Hips"))))
	require.NoError(t, err)

	assert.NotNil(t, m.Root().Find("Hips"))
}

func TestLoadFilePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "friend.glb")
	require.NoError(t, os.WriteFile(p, loadertest.GLB(loadertest.Avatar("Armature", "Hips")), 0o644))

	m, err := NewLoader().Load(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "friend", m.Name())
	assert.Equal(t, p, m.Source())
}

func TestLoadHTTP(t *testing.T) {
	payload := loadertest.GLB(loadertest.Avatar("Armature", "Hips"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exports/avatar.glb" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	l := NewLoader(WithHTTPClient(srv.Client()))

	m, err := l.Load(context.Background(), srv.URL+"/exports/avatar.glb?token=abc")
	require.NoError(t, err)
	assert.Equal(t, "avatar", m.Name())

	_, err = l.Load(context.Background(), srv.URL+"/missing.glb")
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, srv.URL+"/missing.glb", loadErr.URL)
}

func TestLoadMaxBytes(t *testing.T) {
	payload := loadertest.GLB(loadertest.Avatar("Armature", "Hips"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	_, err := NewLoader(WithMaxBytes(16)).Load(context.Background(), srv.URL+"/a.glb")

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), loadertest.DataURI([]byte("not a model")))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadMalformedDocument(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), loadertest.DataURI([]byte(`{"asset":{"version":"1.0"}}`)))

	assert.ErrorIs(t, err, errInvalidGLTFVersion)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.glb"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().Load(ctx, loadertest.DataURI(loadertest.Avatar("Armature")))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadReturnsIndependentModels(t *testing.T) {
	l := NewLoader()
	uri := loadertest.DataURI(loadertest.Avatar("Armature", "Hips"))

	a, err := l.Load(context.Background(), uri)
	require.NoError(t, err)
	b, err := l.Load(context.Background(), uri)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.NotSame(t, a.Root(), b.Root())
	a.Release()
	assert.False(t, b.Released())
}

func TestLoadAppliesClipFilter(t *testing.T) {
	l := NewLoader(WithClipFilter(model.RetargetFilter("Hips")))
	doc := loadertest.Animation("idle", 2, "Hips.position", "Hips.quaternion", "Spine.position", "Spine.quaternion", "Spine.scale")

	m, err := l.Load(context.Background(), loadertest.DataURI(doc))
	require.NoError(t, err)

	require.Equal(t, 1, m.AnimationCount())
	clip := m.Animations()[0]
	assert.Equal(t, "idle", clip.Name)
	assert.InDelta(t, 2.0, clip.Duration, 1e-6)
	assert.Equal(t, []string{"Hips.position", "Hips.quaternion", "Spine.quaternion"}, clip.TrackNames())

	l.SetClipFilter(nil)
	m, err = l.Load(context.Background(), loadertest.DataURI(doc))
	require.NoError(t, err)
	assert.Len(t, m.Animations()[0].Tracks, 5)
}

func TestLoadAnimationKeyframes(t *testing.T) {
	m, err := NewLoader().Load(context.Background(), loadertest.DataURI(loadertest.Animation("wave", 1, "Hips.quaternion")))
	require.NoError(t, err)

	track := m.Animations()[0].Tracks[0]
	assert.Equal(t, "Hips", track.Target)
	assert.Equal(t, model.ChannelQuaternion, track.Channel)
	require.Len(t, track.RotationKeys, 2)
	assert.Equal(t, loadertest.RotatedY, track.RotationKeys[1].Value)
	assert.InDelta(t, 1.0, track.RotationKeys[1].Time, 1e-6)
}

func TestLoadAsync(t *testing.T) {
	l := NewLoader(WithWorkers(2))
	good := l.LoadAsync(context.Background(), loadertest.DataURI(loadertest.Avatar("Armature")))
	bad := l.LoadAsync(context.Background(), "data:,garbage")

	for _, ch := range []<-chan Result{good, bad} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatal("async load did not complete")
		}
	}
}

func TestLoadAsyncDeliversResult(t *testing.T) {
	l := NewLoader()

	select {
	case res, ok := <-l.LoadAsync(context.Background(), loadertest.DataURI(loadertest.Avatar("Armature"))):
		require.True(t, ok)
		require.NoError(t, res.Err)
		assert.NotNil(t, res.Model)
	case <-time.After(5 * time.Second):
		t.Fatal("async load did not complete")
	}
}

func TestLoadErrorMessageTruncatesDataURI(t *testing.T) {
	err := &LoadError{URL: loadertest.DataURI(make([]byte, 256)), Err: errors.New("boom")}

	assert.Less(t, len(err.Error()), 100)
	assert.Contains(t, err.Error(), "boom")
}

func TestDisplayLocation(t *testing.T) {
	uri := loadertest.DataURI(make([]byte, 4096))

	short := DisplayLocation(uri)
	assert.Len(t, short, 51)
	assert.True(t, strings.HasPrefix(uri, strings.TrimSuffix(short, "...")))
	assert.Equal(t, "public/default_model.glb", DisplayLocation("public/default_model.glb"))
	assert.Equal(t, "data:,x", DisplayLocation("data:,x"))
}
