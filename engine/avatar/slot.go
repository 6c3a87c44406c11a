package avatar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-avatar/engine/loader"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Carmen-Shannon/oxy-avatar/engine/avatar"

// State is the lifecycle state of a Slot.
type State int

const (
	// StateEmpty means no avatar has loaded yet and no load is in flight.
	StateEmpty State = iota
	// StateLoading means at least one SetAvatar call is still loading.
	StateLoading
	// StateActive means an avatar is active and no load is in flight.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Loader produces the model for a swap. loader.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, location string) (model.Model, error)
}

// SwapFunc observes a completed swap. old is nil for the first avatar.
type SwapFunc func(old, next *Handle)

// SwapResult is the outcome of an asynchronous SetAvatar.
type SwapResult struct {
	Handle *Handle
	Err    error
}

// slot is the implementation of the Slot interface.
type slot struct {
	mu sync.RWMutex

	loader   Loader
	scene    scene.Scene
	animator animator.Animator

	frame  sync.Locker
	logger *slog.Logger
	tracer trace.Tracer

	active    *Handle
	observers []SwapFunc

	requests atomic.Uint64
	inFlight atomic.Int64
}

// Slot owns the single active avatar and performs swaps.
//
// A swap loads the new asset outside any lock, then under the frame lock retires the previous
// avatar (hidden, removed from the animator, detached from the scene, in that order) and
// installs the new one (attached, joined, shown). The previous avatar's resources are released
// after the frame lock is dropped. Concurrent swaps are not ordered by request: whichever load
// finishes last ends up active.
type Slot interface {
	// SetAvatar loads the asset at url and makes it the active avatar. Blocks until the load and
	// the swap are done. On failure the previous avatar stays active and visible.
	//
	// Parameters:
	//   - ctx: cancels the load
	//   - url: the asset location
	//
	// Returns:
	//   - *Handle: the new active handle
	//   - error: a *loader.LoadError (or the Loader's own error) if the load failed
	SetAvatar(ctx context.Context, url string) (*Handle, error)

	// SetAvatarAsync runs SetAvatar on a new goroutine. The channel receives one result and is
	// then closed.
	//
	// Parameters:
	//   - ctx: cancels the load
	//   - url: the asset location
	//
	// Returns:
	//   - <-chan SwapResult: delivers the outcome
	SetAvatarAsync(ctx context.Context, url string) <-chan SwapResult

	// Active returns the active handle, or nil before the first successful load.
	//
	// Returns:
	//   - *Handle: the active handle or nil
	Active() *Handle

	// ActiveRoot returns the root node of the active avatar, or nil before the first load.
	//
	// Returns:
	//   - scene.Node: the active root or nil
	ActiveRoot() scene.Node

	// State returns the current lifecycle state.
	//
	// Returns:
	//   - State: the slot state
	State() State

	// OnSwap registers fn to be called after every completed swap, outside the frame lock.
	//
	// Parameters:
	//   - fn: the observer
	OnSwap(fn SwapFunc)

	// Clear retires the active avatar, leaving the slot empty. Used on shutdown.
	Clear()
}

var _ Slot = &slot{}

// NewSlot creates a Slot that loads with ld, attaches avatars to sc and animates them with anim.
//
// Parameters:
//   - ld: the asset loader
//   - sc: the scene avatars are attached to
//   - anim: the shared animator
//   - options: a variadic list of SlotBuilderOption functions to configure the Slot
//
// Returns:
//   - Slot: a new, empty Slot
func NewSlot(ld Loader, sc scene.Scene, anim animator.Animator, options ...SlotBuilderOption) Slot {
	s := &slot{
		loader:   ld,
		scene:    sc,
		animator: anim,
		frame:    &sync.Mutex{},
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *slot) SetAvatar(ctx context.Context, url string) (*Handle, error) {
	id := s.requests.Add(1)

	ctx, span := s.tracer.Start(ctx, "avatar.swap", trace.WithAttributes(
		attribute.String("avatar.url", loader.DisplayLocation(url)),
		attribute.Int64("avatar.request", int64(id)),
	))
	defer span.End()

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	m, err := s.loader.Load(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		s.logger.Warn("avatar load failed, keeping current avatar", "url", loader.DisplayLocation(url), "request", id, "error", err)
		return nil, err
	}

	next := newHandle(id, url, m)
	old := s.swap(next)
	if old != nil {
		if old.ID() > id {
			s.logger.Debug("older request completed after a newer one", "replaced", old.ID(), "request", id)
		}
		old.Dispose()
	}

	s.logger.Info("avatar swapped", "url", loader.DisplayLocation(url), "request", id)
	s.mu.RLock()
	observers := append([]SwapFunc(nil), s.observers...)
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(old, next)
	}
	return next, nil
}

func (s *slot) SetAvatarAsync(ctx context.Context, url string) <-chan SwapResult {
	out := make(chan SwapResult, 1)
	go func() {
		defer close(out)
		h, err := s.SetAvatar(ctx, url)
		out <- SwapResult{Handle: h, Err: err}
	}()
	return out
}

// swap installs next as the active avatar under the frame lock and returns the avatar it
// replaced, already retired but not yet disposed.
func (s *slot) swap(next *Handle) *Handle {
	root := next.Root()
	root.SetVisible(false)

	s.frame.Lock()
	defer s.frame.Unlock()

	s.mu.Lock()
	old := s.active
	s.active = next
	s.mu.Unlock()

	if old != nil {
		s.retire(old)
	}

	s.scene.Attach(root)
	s.animator.Join(root)
	next.setMember(true)
	root.SetVisible(true)
	return old
}

// retire hides h, removes it from the animator and detaches it from the scene.
// Caller must hold the frame lock.
func (s *slot) retire(h *Handle) {
	root := h.Root()
	root.SetVisible(false)
	s.animator.Leave(root)
	h.setMember(false)
	s.scene.Detach(root)
}

func (s *slot) Active() *Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *slot) ActiveRoot() scene.Node {
	if h := s.Active(); h != nil {
		return h.Root()
	}
	return nil
}

func (s *slot) State() State {
	if s.inFlight.Load() > 0 {
		return StateLoading
	}
	if s.Active() != nil {
		return StateActive
	}
	return StateEmpty
}

func (s *slot) OnSwap(fn SwapFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *slot) Clear() {
	s.frame.Lock()
	s.mu.Lock()
	old := s.active
	s.active = nil
	s.mu.Unlock()
	if old != nil {
		s.retire(old)
	}
	s.frame.Unlock()

	if old != nil {
		old.Dispose()
	}
}
