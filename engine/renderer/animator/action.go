package animator

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
)

// action holds the playback state of one bound clip.
type action struct {
	mu sync.Mutex

	clip  *model.AnimationClip
	empty bool

	time, timeScale float32
	loop, running   bool
}

// Action controls playback of a clip on the Animator's group.
// Actions start stopped, looping, at time zero with a time scale of 1.
type Action interface {
	// Play starts or resumes playback from the current time.
	Play()

	// Stop halts playback and rewinds to time zero.
	Stop()

	// Reset rewinds to time zero without changing whether the action is running.
	Reset()

	// IsRunning reports whether the action advances and applies on Tick.
	//
	// Returns:
	//   - bool: true while playing
	IsRunning() bool

	// Time returns the current playback time in seconds.
	//
	// Returns:
	//   - float32: the local clip time
	Time() float32

	// SetTime jumps to t seconds.
	//
	// Parameters:
	//   - t: the new local clip time
	SetTime(t float32)

	// SetTimeScale sets the playback speed multiplier. Negative values play backwards.
	//
	// Parameters:
	//   - scale: the speed multiplier
	SetTimeScale(scale float32)

	// SetLoop sets whether playback wraps at the end of the clip. A non-looping action stops
	// after applying its final pose.
	//
	// Parameters:
	//   - loop: true to repeat
	SetLoop(loop bool)

	// Clip returns the bound clip, which may be nil for a no-op action.
	//
	// Returns:
	//   - *model.AnimationClip: the clip
	Clip() *model.AnimationClip

	// Empty reports whether this is a no-op action produced by binding an unusable clip.
	//
	// Returns:
	//   - bool: true for a no-op action
	Empty() bool
}

var _ Action = &action{}

func newAction(clip *model.AnimationClip) *action {
	return &action{
		clip:      clip,
		timeScale: 1,
		loop:      true,
	}
}

func (a *action) Play() {
	if a.empty {
		return
	}
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()
}

func (a *action) Stop() {
	a.mu.Lock()
	a.running = false
	a.time = 0
	a.mu.Unlock()
}

func (a *action) Reset() {
	a.mu.Lock()
	a.time = 0
	a.mu.Unlock()
}

func (a *action) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *action) Time() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.time
}

func (a *action) SetTime(t float32) {
	a.mu.Lock()
	a.time = t
	a.mu.Unlock()
}

func (a *action) SetTimeScale(scale float32) {
	a.mu.Lock()
	a.timeScale = scale
	a.mu.Unlock()
}

func (a *action) SetLoop(loop bool) {
	a.mu.Lock()
	a.loop = loop
	a.mu.Unlock()
}

func (a *action) Clip() *model.AnimationClip {
	return a.clip
}

func (a *action) Empty() bool {
	return a.empty
}

// advance moves the action forward by dt and returns the time to sample at and whether the
// action should be applied this tick.
func (a *action) advance(dt float32) (float32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.empty || !a.running {
		return 0, false
	}

	a.time += dt * a.timeScale

	duration := a.clip.Duration
	if duration <= 0 {
		a.time = 0
		return 0, true
	}

	if a.loop {
		if a.time >= duration || a.time < 0 {
			a.time = float32(math.Mod(float64(a.time), float64(duration)))
			if a.time < 0 {
				a.time += duration
			}
		}
		return a.time, true
	}

	// once: clamp to the end, apply the final pose, then stop
	if a.time >= duration {
		a.time = duration
		a.running = false
	} else if a.time < 0 {
		a.time = 0
		a.running = false
	}
	return a.time, true
}
