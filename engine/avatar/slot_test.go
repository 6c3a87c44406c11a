package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-avatar/engine/loader"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var errUnreachable = errors.New("unreachable")

// fakeLoader builds a small avatar per url. Loads for urls with a gate block until the gate
// is closed; urls marked broken fail with a LoadError.
type fakeLoader struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started map[string]chan struct{}
	broken  map[string]bool
	calls   []string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		gates:   make(map[string]chan struct{}),
		started: make(map[string]chan struct{}),
		broken:  make(map[string]bool),
	}
}

// hold makes loads of url block until the returned release func is called. The returned
// channel closes once a load of url has started.
func (l *fakeLoader) hold(url string) (func(), <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gate := make(chan struct{})
	started := make(chan struct{})
	l.gates[url] = gate
	l.started[url] = started
	return func() { close(gate) }, started
}

func (l *fakeLoader) Load(ctx context.Context, url string) (model.Model, error) {
	l.mu.Lock()
	l.calls = append(l.calls, url)
	gate := l.gates[url]
	started := l.started[url]
	broken := l.broken[url]
	l.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &loader.LoadError{URL: url, Err: ctx.Err()}
		}
	}
	if broken {
		return nil, &loader.LoadError{URL: url, Err: errUnreachable}
	}

	root := scene.NewNode(url)
	root.Add(scene.NewNode("Hips"))
	return model.NewModel(
		model.WithName(url),
		model.WithSource(url),
		model.WithRoot(root),
		model.WithProviders(bind_group_provider.NewBindGroupProvider(url+"/mesh",
			bind_group_provider.WithVertexData(make([]byte, 32)),
		)),
	), nil
}

func hipsClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "idle",
		Duration: 1,
		Tracks: []model.AnimationTrack{{
			Target:  "Hips",
			Channel: model.ChannelPosition,
			VectorKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 1, Value: [3]float32{0, 1, 0}},
			},
		}},
	}
}

type fixture struct {
	loader   *fakeLoader
	scene    scene.Scene
	animator animator.Animator
	slot     Slot
}

func newFixture(options ...SlotBuilderOption) *fixture {
	f := &fixture{
		loader:   newFakeLoader(),
		scene:    scene.NewScene("test"),
		animator: animator.NewAnimator(),
	}
	f.slot = NewSlot(f.loader, f.scene, f.animator, options...)
	return f
}

func TestSetAvatarActivatesFirstAvatar(t *testing.T) {
	f := newFixture()
	assert.Equal(t, StateEmpty, f.slot.State())
	assert.Nil(t, f.slot.Active())
	assert.Nil(t, f.slot.ActiveRoot())

	h, err := f.slot.SetAvatar(context.Background(), "A")
	require.NoError(t, err)

	assert.Same(t, h, f.slot.Active())
	assert.Equal(t, "A", h.URL())
	assert.Equal(t, StateActive, f.slot.State())
	assert.True(t, h.Visible())
	assert.True(t, h.Member())
	assert.True(t, f.scene.Contains(h.Root()))
	assert.True(t, f.animator.IsMember(h.Root()))
	assert.Same(t, h.Root(), f.slot.ActiveRoot())

	// no clip bound yet
	assert.NoError(t, f.animator.Tick(0.016))
}

func TestSwapRetiresPreviousAvatar(t *testing.T) {
	f := newFixture()
	a, err := f.slot.SetAvatar(context.Background(), "A")
	require.NoError(t, err)
	b, err := f.slot.SetAvatar(context.Background(), "B")
	require.NoError(t, err)

	assert.Same(t, b, f.slot.Active())
	assert.Greater(t, b.ID(), a.ID())

	assert.False(t, a.Visible())
	assert.False(t, a.Member())
	assert.False(t, f.animator.IsMember(a.Root()))
	assert.False(t, f.scene.Contains(a.Root()))
	assert.Nil(t, a.Root().Parent())
	assert.True(t, a.Disposed())
	assert.True(t, a.Model().Released())
	assert.True(t, a.Model().Providers()[0].Released())

	assert.True(t, b.Visible())
	assert.False(t, b.Disposed())
	assert.Equal(t, []scene.Node{b.Root()}, f.animator.Members())
	assert.Equal(t, 1, f.scene.Count())
}

func TestRepeatedSwapsKeepExactlyOneActive(t *testing.T) {
	f := newFixture()
	var handles []*Handle
	for i := 0; i < 5; i++ {
		h, err := f.slot.SetAvatar(context.Background(), fmt.Sprintf("avatar-%d", i))
		require.NoError(t, err)
		handles = append(handles, h)

		assert.Len(t, f.scene.VisibleRoots(), 1)
		assert.Equal(t, 1, f.animator.MemberCount())
		for _, prev := range handles[:len(handles)-1] {
			assert.False(t, prev.Member())
			assert.False(t, prev.Visible())
			assert.True(t, prev.Disposed())
		}
	}
	assert.Same(t, handles[4], f.slot.Active())
}

func TestFailedLoadKeepsPreviousAvatar(t *testing.T) {
	f := newFixture()
	a, err := f.slot.SetAvatar(context.Background(), "A")
	require.NoError(t, err)

	f.loader.broken["broken"] = true
	h, err := f.slot.SetAvatar(context.Background(), "broken")

	assert.Nil(t, h)
	var loadErr *loader.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "broken", loadErr.URL)
	assert.ErrorIs(t, err, errUnreachable)

	assert.Same(t, a, f.slot.Active())
	assert.True(t, a.Visible())
	assert.True(t, a.Member())
	assert.False(t, a.Disposed())
	assert.Equal(t, StateActive, f.slot.State())
}

func TestFailedFirstLoadStaysEmpty(t *testing.T) {
	f := newFixture()
	f.loader.broken["A"] = true

	_, err := f.slot.SetAvatar(context.Background(), "A")

	assert.Error(t, err)
	assert.Nil(t, f.slot.Active())
	assert.Equal(t, StateEmpty, f.slot.State())
	assert.Zero(t, f.scene.Count())
}

func TestTicksDuringLoadKeepOldAvatar(t *testing.T) {
	f := newFixture()
	a, err := f.slot.SetAvatar(context.Background(), "A")
	require.NoError(t, err)
	f.animator.Bind(hipsClip()).Play()

	release, started := f.loader.hold("B")
	done := f.slot.SetAvatarAsync(context.Background(), "B")
	<-started

	for i := 0; i < 3; i++ {
		require.NoError(t, f.animator.Tick(0.1))
		assert.Same(t, a, f.slot.Active())
		assert.Equal(t, StateLoading, f.slot.State())
		assert.Equal(t, []scene.Node{a.Root()}, f.animator.Members())
	}

	release()
	res := <-done
	require.NoError(t, res.Err)
	require.NoError(t, f.animator.Tick(0.1))

	b := res.Handle
	assert.Same(t, b, f.slot.Active())
	assert.Equal(t, []scene.Node{b.Root()}, f.animator.Members())
	assert.InDelta(t, 0.4, b.Root().Find("Hips").Transform().Translation[1], 1e-5)
	assert.InDelta(t, 0.3, a.Root().Find("Hips").Transform().Translation[1], 1e-5)
}

func TestLastCompletionWins(t *testing.T) {
	f := newFixture()
	releaseB, startedB := f.loader.hold("B")
	releaseC, startedC := f.loader.hold("C")

	doneB := f.slot.SetAvatarAsync(context.Background(), "B")
	<-startedB
	doneC := f.slot.SetAvatarAsync(context.Background(), "C")
	<-startedC

	releaseC()
	resC := <-doneC
	require.NoError(t, resC.Err)
	assert.Same(t, resC.Handle, f.slot.Active())

	releaseB()
	resB := <-doneB
	require.NoError(t, resB.Err)

	assert.Same(t, resB.Handle, f.slot.Active())
	assert.Less(t, resB.Handle.ID(), resC.Handle.ID())
	assert.True(t, resC.Handle.Disposed())
	assert.Equal(t, []scene.Node{resB.Handle.Root()}, f.animator.Members())
}

func TestCancelledLoadLeavesSlotUntouched(t *testing.T) {
	f := newFixture()
	_, err := f.slot.SetAvatar(context.Background(), "A")
	require.NoError(t, err)

	_, started := f.loader.hold("B")
	ctx, cancel := context.WithCancel(context.Background())
	done := f.slot.SetAvatarAsync(ctx, "B")
	<-started
	cancel()

	select {
	case res := <-done:
		assert.ErrorIs(t, res.Err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled load did not return")
	}
	assert.Equal(t, "A", f.slot.Active().URL())
}

// recordingAnimator and recordingScene log the order in which a swap touches them.
type recordingAnimator struct {
	animator.Animator
	events *[]string
}

func (r *recordingAnimator) Join(root scene.Node) {
	*r.events = append(*r.events, fmt.Sprintf("join %s visible=%t", root.Name(), root.Visible()))
	r.Animator.Join(root)
}

func (r *recordingAnimator) Leave(root scene.Node) {
	*r.events = append(*r.events, fmt.Sprintf("leave %s visible=%t", root.Name(), root.Visible()))
	r.Animator.Leave(root)
}

type recordingScene struct {
	scene.Scene
	anim   animator.Animator
	events *[]string
}

func (r *recordingScene) Attach(n scene.Node) {
	*r.events = append(*r.events, "attach "+n.Name())
	r.Scene.Attach(n)
}

func (r *recordingScene) Detach(n scene.Node) {
	*r.events = append(*r.events, fmt.Sprintf("detach %s member=%t", n.Name(), r.anim.IsMember(n)))
	r.Scene.Detach(n)
}

func TestSwapOrdering(t *testing.T) {
	var events []string
	anim := &recordingAnimator{Animator: animator.NewAnimator(), events: &events}
	sc := &recordingScene{Scene: scene.NewScene("test"), anim: anim, events: &events}
	s := NewSlot(newFakeLoader(), sc, anim)

	_, err := s.SetAvatar(context.Background(), "A")
	require.NoError(t, err)
	b, err := s.SetAvatar(context.Background(), "B")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"attach A",
		"join A visible=false",
		"leave A visible=false",
		"detach A member=false",
		"attach B",
		"join B visible=false",
	}, events)
	assert.True(t, b.Visible())
}

// lockProbe records whether the frame lock was held each time a swap touched the scene.
type lockProbe struct {
	sync.Mutex
	held bool
}

func (l *lockProbe) Lock()   { l.Mutex.Lock(); l.held = true }
func (l *lockProbe) Unlock() { l.held = false; l.Mutex.Unlock() }

type probingScene struct {
	scene.Scene
	lock   *lockProbe
	misses int
}

func (p *probingScene) Attach(n scene.Node) {
	if !p.lock.held {
		p.misses++
	}
	p.Scene.Attach(n)
}

func (p *probingScene) Detach(n scene.Node) {
	if !p.lock.held {
		p.misses++
	}
	p.Scene.Detach(n)
}

func TestSwapHoldsFrameLock(t *testing.T) {
	lock := &lockProbe{}
	sc := &probingScene{Scene: scene.NewScene("test"), lock: lock}
	s := NewSlot(newFakeLoader(), sc, animator.NewAnimator(), WithFrameLock(lock))

	for _, url := range []string{"A", "B", "C"} {
		_, err := s.SetAvatar(context.Background(), url)
		require.NoError(t, err)
	}
	s.Clear()

	assert.Zero(t, sc.misses)
	assert.False(t, lock.held)
}

func TestOnSwapObservers(t *testing.T) {
	f := newFixture()
	type swap struct{ old, next *Handle }
	var seen []swap
	f.slot.OnSwap(func(old, next *Handle) { seen = append(seen, swap{old, next}) })
	f.slot.OnSwap(nil)

	a, err := f.slot.SetAvatar(context.Background(), "A")
	require.NoError(t, err)
	b, err := f.slot.SetAvatar(context.Background(), "B")
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Nil(t, seen[0].old)
	assert.Same(t, a, seen[0].next)
	assert.Same(t, a, seen[1].old)
	assert.Same(t, b, seen[1].next)
}

func TestClearEmptiesSlot(t *testing.T) {
	f := newFixture()
	a, err := f.slot.SetAvatar(context.Background(), "A")
	require.NoError(t, err)

	f.slot.Clear()
	f.slot.Clear()

	assert.Nil(t, f.slot.Active())
	assert.Equal(t, StateEmpty, f.slot.State())
	assert.True(t, a.Disposed())
	assert.Zero(t, f.animator.MemberCount())
	assert.Zero(t, f.scene.Count())
}

func TestSwapIsTraced(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	f := newFixture(WithTracer(tp.Tracer("test")))
	f.loader.broken["broken"] = true

	_, err := f.slot.SetAvatar(context.Background(), "A")
	require.NoError(t, err)
	_, err = f.slot.SetAvatar(context.Background(), "broken")
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "avatar.swap", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestHandleDisposeIsIdempotent(t *testing.T) {
	m, err := newFakeLoader().Load(context.Background(), "A")
	require.NoError(t, err)
	h := newHandle(1, "A", m)

	h.Dispose()
	h.Dispose()

	assert.True(t, h.Disposed())
	assert.True(t, m.Released())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestDataURILocationsAreShortenedInLogsAndSpans(t *testing.T) {
	var logs bytes.Buffer
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	f := newFixture(
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		WithTracer(tp.Tracer("test")),
	)
	uri := "data:model/gltf-binary;base64," + strings.Repeat("QUFB", 1024)

	h, err := f.slot.SetAvatar(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, uri, h.URL())

	assert.Contains(t, logs.String(), "avatar swapped")
	assert.NotContains(t, logs.String(), uri)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "avatar.url" {
			assert.Equal(t, loader.DisplayLocation(uri), kv.Value.AsString())
		}
	}
}
