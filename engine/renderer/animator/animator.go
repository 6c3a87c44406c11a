package animator

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
)

var (
	// ErrNoCompatibleTracks is logged when a clip with no tracks is bound; the resulting action is a no-op.
	ErrNoCompatibleTracks = errors.New("clip has no tracks to bind")

	// ErrReentrantTick is returned by Tick when another Tick is already in progress.
	ErrReentrantTick = errors.New("animator tick already in progress")
)

// memberBinding caches the nodes a member's hierarchy resolves track targets to.
// A nil entry records a target the member does not have.
type memberBinding struct {
	nodes map[string]scene.Node
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu sync.Mutex

	logger *slog.Logger

	members  []scene.Node
	bindings map[scene.Node]*memberBinding
	actions  []*action

	ticking atomic.Bool
}

// Animator defines the public interface for the shared animation context.
//
// The Animator owns a group of member roots and a set of actions bound to clips. Each Tick
// advances every running action and writes the sampled pose into every member: a track named
// "Hips.quaternion" rotates the node named "Hips" inside each member's hierarchy. Members can
// join and leave between ticks without disturbing playback, which is what lets an avatar be
// swapped while the idle animation keeps running.
//
// Actions are independent of membership: a clip bound before any member joins starts driving a
// member as soon as it joins.
type Animator interface {
	// Join adds root to the group. No-op if root is nil or already a member.
	//
	// Parameters:
	//   - root: the top node of the hierarchy to animate
	Join(root scene.Node)

	// Leave removes root from the group and drops the node lookups cached for it.
	// No-op if root is not a member. A root that has left never receives another pose.
	//
	// Parameters:
	//   - root: the member to remove
	Leave(root scene.Node)

	// IsMember reports whether root is currently in the group.
	//
	// Parameters:
	//   - root: the node to check
	//
	// Returns:
	//   - bool: true if root is a member
	IsMember(root scene.Node) bool

	// Members returns the current members in join order.
	//
	// Returns:
	//   - []scene.Node: a copy of the member list
	Members() []scene.Node

	// MemberCount returns the number of members.
	//
	// Returns:
	//   - int: the member count
	MemberCount() int

	// Bind returns the action that plays clip on the group, creating it on first use. Binding the
	// same clip twice returns the same action. A nil clip or a clip with no tracks yields a no-op
	// action and logs ErrNoCompatibleTracks.
	//
	// Parameters:
	//   - clip: the clip to play
	//
	// Returns:
	//   - Action: the playback handle
	Bind(clip *model.AnimationClip) Action

	// Actions returns every action created by Bind, excluding no-op actions.
	//
	// Returns:
	//   - []Action: the actions in bind order
	Actions() []Action

	// Tick advances all running actions by dt seconds and applies the resulting pose to every
	// member. Tick is not reentrant: a call made while another Tick is running returns
	// ErrReentrantTick without doing anything.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//
	// Returns:
	//   - error: ErrReentrantTick if a tick was already in progress
	Tick(dt float32) error
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with no members and no actions.
//
// Parameters:
//   - options: a variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: a new Animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		logger:   slog.Default(),
		bindings: make(map[scene.Node]*memberBinding),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *animator) Join(root scene.Node) {
	if root == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.bindings[root]; ok {
		return
	}
	a.members = append(a.members, root)
	a.bindings[root] = &memberBinding{nodes: make(map[string]scene.Node)}
}

func (a *animator) Leave(root scene.Node) {
	if root == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.bindings[root]; !ok {
		return
	}
	delete(a.bindings, root)
	for i, m := range a.members {
		if m == root {
			a.members = append(a.members[:i], a.members[i+1:]...)
			break
		}
	}
}

func (a *animator) IsMember(root scene.Node) bool {
	if root == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.bindings[root]
	return ok
}

func (a *animator) Members() []scene.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]scene.Node, len(a.members))
	copy(out, a.members)
	return out
}

func (a *animator) MemberCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.members)
}

func (a *animator) Bind(clip *model.AnimationClip) Action {
	if clip == nil || len(clip.Tracks) == 0 {
		name := ""
		if clip != nil {
			name = clip.Name
		}
		a.logger.Warn("binding no-op action", "clip", name, "error", ErrNoCompatibleTracks)
		return &action{clip: clip, empty: true}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, act := range a.actions {
		if act.clip == clip {
			return act
		}
	}
	act := newAction(clip)
	a.actions = append(a.actions, act)
	return act
}

func (a *animator) Actions() []Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Action, len(a.actions))
	for i, act := range a.actions {
		out[i] = act
	}
	return out
}

func (a *animator) Tick(dt float32) error {
	if !a.ticking.CompareAndSwap(false, true) {
		a.logger.Warn("animator tick rejected", "error", ErrReentrantTick)
		return ErrReentrantTick
	}
	defer a.ticking.Store(false)

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, act := range a.actions {
		t, apply := act.advance(dt)
		if !apply {
			continue
		}
		for _, root := range a.members {
			a.applyClip(root, act.clip, t)
		}
	}
	return nil
}

// applyClip samples every track of clip at time t and writes the values into root's hierarchy.
// Caller must hold a.mu.
func (a *animator) applyClip(root scene.Node, clip *model.AnimationClip, t float32) {
	binding := a.bindings[root]
	for i := range clip.Tracks {
		track := &clip.Tracks[i]

		target, cached := binding.nodes[track.Target]
		if !cached {
			target = root.Find(track.Target)
			binding.nodes[track.Target] = target
		}
		if target == nil {
			continue
		}

		switch track.Channel {
		case model.ChannelPosition:
			if v, ok := sampleVector(track.VectorKeys, t, track.Stepped()); ok {
				target.SetTranslation(v)
			}
		case model.ChannelQuaternion:
			if q, ok := sampleQuaternion(track.RotationKeys, t, track.Stepped()); ok {
				target.SetRotation(q)
			}
		case model.ChannelScale:
			if v, ok := sampleVector(track.VectorKeys, t, track.Stepped()); ok {
				target.SetScale(v)
			}
		}
	}
}
