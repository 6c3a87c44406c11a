package animator

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quarterTurnY = [4]float32{0, float32(math.Sqrt2 / 2), 0, float32(math.Sqrt2 / 2)}

func idleClip(duration float32) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "idle",
		Duration: duration,
		Tracks: []model.AnimationTrack{
			{
				Target:  "Hips",
				Channel: model.ChannelPosition,
				VectorKeys: []model.VectorKeyframe{
					{Time: 0, Value: [3]float32{0, 0, 0}},
					{Time: duration, Value: [3]float32{0, 2, 0}},
				},
			},
			{
				Target:  "Spine",
				Channel: model.ChannelQuaternion,
				RotationKeys: []model.QuaternionKeyframe{
					{Time: 0, Value: [4]float32{0, 0, 0, 1}},
					{Time: duration, Value: quarterTurnY},
				},
			},
		},
	}
}

func avatarRoot(name string) scene.Node {
	root := scene.NewNode(name)
	hips := scene.NewNode("Hips")
	hips.Add(scene.NewNode("Spine"))
	root.Add(hips)
	return root
}

func TestTickAdvancesSharedClip(t *testing.T) {
	a := NewAnimator()
	root := avatarRoot("avatar")
	a.Join(root)

	act := a.Bind(idleClip(2))
	act.Play()

	for i := 0; i < 60; i++ {
		require.NoError(t, a.Tick(0.016))
	}

	assert.InDelta(t, 0.96, act.Time(), 1e-4)

	want := mgl32.QuatRotate(0.48*math.Pi/2, mgl32.Vec3{0, 1, 0})
	got := root.Find("Spine").Transform().Rotation
	assert.InDeltaSlice(t, []float32{want.V[0], want.V[1], want.V[2], want.W}, got[:], 1e-4)
	assert.InDelta(t, 0.96, root.Find("Hips").Transform().Translation[1], 1e-3)
}

func TestJoinIsIdempotent(t *testing.T) {
	a := NewAnimator()
	root := avatarRoot("avatar")

	a.Join(root)
	a.Join(root)
	a.Join(nil)

	assert.Equal(t, 1, a.MemberCount())
	assert.True(t, a.IsMember(root))
	assert.False(t, a.IsMember(nil))
}

func TestLeaveStopsPoseUpdates(t *testing.T) {
	a := NewAnimator()
	old := avatarRoot("old")
	next := avatarRoot("next")
	a.Join(old)
	a.Join(next)

	act := a.Bind(idleClip(1))
	act.Play()
	require.NoError(t, a.Tick(0.5))

	a.Leave(old)
	a.Leave(old)
	oldHips := old.Find("Hips").Transform()
	require.NoError(t, a.Tick(0.25))

	assert.Equal(t, oldHips, old.Find("Hips").Transform())
	assert.InDelta(t, 1.5, next.Find("Hips").Transform().Translation[1], 1e-4)
	assert.Equal(t, []scene.Node{next}, a.Members())
}

func TestLateJoinerPickedUpOnNextTick(t *testing.T) {
	a := NewAnimator()
	act := a.Bind(idleClip(2))
	act.Play()
	require.NoError(t, a.Tick(0.5))

	root := avatarRoot("late")
	a.Join(root)
	require.NoError(t, a.Tick(0.5))

	assert.InDelta(t, 1.0, act.Time(), 1e-6)
	assert.InDelta(t, 1.0, root.Find("Hips").Transform().Translation[1], 1e-4)
}

func TestBindEmptyClipReturnsNoopAction(t *testing.T) {
	a := NewAnimator()

	for _, clip := range []*model.AnimationClip{nil, {Name: "empty", Duration: 1}} {
		act := a.Bind(clip)
		act.Play()

		assert.True(t, act.Empty())
		assert.False(t, act.IsRunning())
	}
	assert.Empty(t, a.Actions())
	assert.NoError(t, a.Tick(0.1))
}

func TestBindSameClipReturnsSameAction(t *testing.T) {
	a := NewAnimator()
	clip := idleClip(1)

	first := a.Bind(clip)
	second := a.Bind(clip)

	assert.Same(t, first, second)
	assert.Len(t, a.Actions(), 1)
	assert.Same(t, clip, first.Clip())
}

func TestStoppedActionDoesNotApply(t *testing.T) {
	a := NewAnimator()
	root := avatarRoot("avatar")
	a.Join(root)
	act := a.Bind(idleClip(1))

	require.NoError(t, a.Tick(0.5))

	assert.False(t, act.IsRunning())
	assert.Zero(t, act.Time())
	assert.Equal(t, scene.IdentityTransform(), root.Find("Hips").Transform())
}

func TestLoopWrapsAtDuration(t *testing.T) {
	a := NewAnimator()
	act := a.Bind(idleClip(1))
	act.Play()

	require.NoError(t, a.Tick(1.25))
	assert.InDelta(t, 0.25, act.Time(), 1e-6)
	assert.True(t, act.IsRunning())

	act.SetTimeScale(-1)
	require.NoError(t, a.Tick(0.5))
	assert.InDelta(t, 0.75, act.Time(), 1e-6)
}

func TestOnceClampsAndStops(t *testing.T) {
	a := NewAnimator()
	root := avatarRoot("avatar")
	a.Join(root)
	act := a.Bind(idleClip(1))
	act.SetLoop(false)
	act.Play()

	require.NoError(t, a.Tick(3))

	assert.False(t, act.IsRunning())
	assert.InDelta(t, 1.0, act.Time(), 1e-6)
	assert.InDelta(t, 2.0, root.Find("Hips").Transform().Translation[1], 1e-6)
}

func TestStopAndResetRewind(t *testing.T) {
	a := NewAnimator()
	act := a.Bind(idleClip(2))
	act.Play()
	require.NoError(t, a.Tick(0.5))

	act.Reset()
	assert.Zero(t, act.Time())
	assert.True(t, act.IsRunning())

	act.SetTime(1.5)
	act.Stop()
	assert.Zero(t, act.Time())
	assert.False(t, act.IsRunning())
}

func TestMissingTargetsAreSkipped(t *testing.T) {
	a := NewAnimator()
	root := scene.NewNode("prop")
	a.Join(root)
	act := a.Bind(idleClip(1))
	act.Play()

	assert.NoError(t, a.Tick(0.5))
	assert.Equal(t, scene.IdentityTransform(), root.Transform())
}

// reentrantNode ticks the animator from inside a pose write.
type reentrantNode struct {
	scene.Node
	a   Animator
	err error
}

func (n *reentrantNode) Find(name string) scene.Node {
	if name == n.Name() {
		return n
	}
	return n.Node.Find(name)
}

func (n *reentrantNode) SetTranslation(v [3]float32) {
	n.err = n.a.Tick(0.1)
	n.Node.SetTranslation(v)
}

func TestTickIsNotReentrant(t *testing.T) {
	a := NewAnimator()
	root := &reentrantNode{Node: scene.NewNode("Hips"), a: a}
	a.Join(root)
	act := a.Bind(idleClip(1))
	act.Play()

	require.NoError(t, a.Tick(0.5))

	assert.ErrorIs(t, root.err, ErrReentrantTick)
	assert.InDelta(t, 0.5, act.Time(), 1e-6)
}

func TestSampleVectorHoldsBoundaries(t *testing.T) {
	keys := []model.VectorKeyframe{
		{Time: 1, Value: [3]float32{1, 0, 0}},
		{Time: 3, Value: [3]float32{3, 0, 0}},
	}

	v, ok := sampleVector(keys, 0, false)
	require.True(t, ok)
	assert.Equal(t, [3]float32{1, 0, 0}, v)

	v, _ = sampleVector(keys, 2, false)
	assert.InDelta(t, 2.0, v[0], 1e-6)

	v, _ = sampleVector(keys, 10, false)
	assert.Equal(t, [3]float32{3, 0, 0}, v)

	_, ok = sampleVector(nil, 1, false)
	assert.False(t, ok)
}

func TestSampleQuaternionSlerps(t *testing.T) {
	keys := []model.QuaternionKeyframe{
		{Time: 0, Value: [4]float32{0, 0, 0, 1}},
		{Time: 1, Value: quarterTurnY},
	}

	q, ok := sampleQuaternion(keys, 0.5, false)
	require.True(t, ok)

	half := float32(math.Pi / 8)
	assert.InDeltaSlice(t, []float32{0, float32(math.Sin(float64(half))), 0, float32(math.Cos(float64(half)))}, q[:], 1e-5)
}

func TestStepTracksHoldPreviousKey(t *testing.T) {
	vectors := []model.VectorKeyframe{
		{Time: 0, Value: [3]float32{0, 0, 0}},
		{Time: 1, Value: [3]float32{0, 1, 0}},
	}
	v, ok := sampleVector(vectors, 0.9, true)
	require.True(t, ok)
	assert.Equal(t, [3]float32{0, 0, 0}, v)
	v, _ = sampleVector(vectors, 1, true)
	assert.Equal(t, [3]float32{0, 1, 0}, v)

	rotations := []model.QuaternionKeyframe{
		{Time: 0, Value: [4]float32{0, 0, 0, 1}},
		{Time: 1, Value: quarterTurnY},
	}
	q, _ := sampleQuaternion(rotations, 0.5, true)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, q)

	hips := scene.NewNode("Hips")
	root := scene.NewNode("Armature", scene.WithChildren(hips))
	anim := NewAnimator()
	anim.Join(root)
	act := anim.Bind(&model.AnimationClip{
		Name:     "blink",
		Duration: 1,
		Tracks: []model.AnimationTrack{{
			Target:        "Hips",
			Channel:       model.ChannelPosition,
			Interpolation: model.InterpolationStep,
			VectorKeys:    vectors,
		}},
	})
	act.Play()

	require.NoError(t, anim.Tick(0.75))
	assert.Equal(t, [3]float32{0, 0, 0}, hips.Transform().Translation)
}
