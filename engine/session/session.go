package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/avatar"
	"github.com/Carmen-Shannon/oxy-avatar/engine/bridge"
	"github.com/Carmen-Shannon/oxy-avatar/engine/loader"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
)

const (
	// DefaultAvatarURL is the avatar shown until the first export arrives.
	DefaultAvatarURL = "public/default_model.glb"

	// DefaultAnimationURL is the asset whose first clip plays as the idle loop.
	DefaultAnimationURL = "public/animation.glb"
)

var (
	// ErrClosed is returned by Start and SetAvatar after Close.
	ErrClosed = errors.New("session closed")

	// ErrStarted is returned by Start once the default avatar is active.
	ErrStarted = errors.New("session already started")
)

// session is the implementation of the Session interface.
type session struct {
	mu    sync.Mutex
	frame sync.Mutex

	logger *slog.Logger
	loader loader.Loader

	scene    scene.Scene
	animator animator.Animator
	slot     avatar.Slot

	surface  bridge.Surface
	messages bridge.MessageTransport
	widget   bridge.WidgetTransport

	avatarURL    string
	animationURL string
	rootJoint    string
	source       string
	exportEvent  string
	toolURL      string
	eventSource  bridge.EventSource
	slotOptions  []avatar.SlotBuilderOption

	idle    animator.Action
	ctx     context.Context
	cancel  context.CancelFunc
	swaps   sync.WaitGroup
	started bool
	closed  bool
}

// Session ties the avatar lifecycle together for one viewer instance: it owns the scene, the
// shared animator, the avatar slot, the tool surface and the transports that report exports.
//
// The render loop calls Tick once per frame. Exports from any transport arrive through
// OnExportCompleted and swap the avatar in the background; Tick and the swap share a frame lock
// so a frame never sees a half-applied swap.
type Session interface {
	bridge.ExportHandler

	// Start loads the default avatar and the idle animation concurrently. The first clip of the
	// animation asset is retargeted with the root-joint filter and played looping. A failed
	// animation load is logged and leaves the avatar static. Start may be retried after the
	// default avatar failed to load; the idle clip is bound only once.
	//
	// Parameters:
	//   - ctx: bounds the initial loads; Close cancels them as well
	//
	// Returns:
	//   - error: if the default avatar failed to load, ErrStarted on a repeated call or
	//     ErrClosed after Close
	Start(ctx context.Context) error

	// Tick advances the shared animation by dt seconds under the frame lock.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//
	// Returns:
	//   - error: animator.ErrReentrantTick if a tick is already running
	Tick(dt float32) error

	// SetAvatar swaps the avatar and waits for the result. Close cancels the load and waits for
	// it, so an avatar is never installed after Close.
	//
	// Parameters:
	//   - ctx: cancels the load
	//   - url: the asset location
	//
	// Returns:
	//   - *avatar.Handle: the new active handle
	//   - error: if the load failed, or ErrClosed after Close
	SetAvatar(ctx context.Context, url string) (*avatar.Handle, error)

	// Active returns the active avatar, or nil before the first successful load.
	//
	// Returns:
	//   - *avatar.Handle: the active handle
	Active() *avatar.Handle

	// ActiveRoot returns the root node of the active avatar, or nil.
	//
	// Returns:
	//   - scene.Node: the active root
	ActiveRoot() scene.Node

	// OpenSurface shows the tool surface, initializing the widget when one is configured.
	// Idempotent.
	//
	// Parameters:
	//   - ctx: bounds widget initialization
	//
	// Returns:
	//   - error: if the widget failed to initialize
	OpenSurface(ctx context.Context) error

	// CloseSurface hides the tool surface. Idempotent.
	CloseSurface()

	// Surface returns the tool surface.
	Surface() bridge.Surface

	// Scene returns the scene avatars are attached to.
	Scene() scene.Scene

	// Animator returns the shared animator.
	Animator() animator.Animator

	// Slot returns the avatar slot.
	Slot() avatar.Slot

	// Messages returns the raw-message transport, which also serves WebSocket clients.
	Messages() bridge.MessageTransport

	// Idle returns the idle action, or nil before Start.
	Idle() animator.Action

	// Wait blocks until every swap in flight, including those started by OnExportCompleted, has finished.
	Wait()

	// Close stops background swaps, retires the active avatar and hides the surface.
	//
	// Returns:
	//   - error: always nil, kept for io.Closer
	Close() error
}

var _ Session = &session{}

// NewSession creates a Session with the specified options applied.
//
// Parameters:
//   - options: a variadic list of SessionBuilderOption functions to configure the Session
//
// Returns:
//   - Session: a new, not yet started Session
func NewSession(options ...SessionBuilderOption) Session {
	s := &session{
		logger:       slog.Default(),
		avatarURL:    DefaultAvatarURL,
		animationURL: DefaultAnimationURL,
		rootJoint:    model.DefaultRootJoint,
		source:       bridge.DefaultSource,
		exportEvent:  bridge.DefaultExportEvent,
		toolURL:      bridge.ToolURL(bridge.DefaultSubdomain),
	}
	for _, opt := range options {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if s.loader == nil {
		s.loader = loader.NewLoader(loader.WithLogger(s.logger))
	}
	s.scene = scene.NewScene("avatar", scene.WithActive(true))
	s.animator = animator.NewAnimator(animator.WithLogger(s.logger))
	s.slot = avatar.NewSlot(s.loader, s.scene, s.animator, append([]avatar.SlotBuilderOption{
		avatar.WithFrameLock(&s.frame),
		avatar.WithLogger(s.logger),
	}, s.slotOptions...)...)
	s.slot.OnSwap(s.logSwap)

	if s.eventSource != nil {
		s.widget = bridge.NewWidgetTransport(s.eventSource, s,
			bridge.WithToolURL(s.toolURL),
			bridge.WithWidgetLogger(s.logger),
		)
		s.surface = s.widget.Surface()
	} else {
		s.surface = bridge.NewSurface(false)
	}
	s.messages = bridge.NewMessageTransport(s, s.surface,
		bridge.WithSource(s.source),
		bridge.WithExportEvent(s.exportEvent),
		bridge.WithMessageLogger(s.logger),
	)
	return s
}

func (s *session) Start(ctx context.Context) error {
	ctx, done, err := s.track(ctx)
	if err != nil {
		return err
	}
	defer done()

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrStarted
	}
	s.started = true
	needIdle := s.idle == nil
	s.mu.Unlock()

	avatarDone := s.slot.SetAvatarAsync(ctx, s.avatarURL)
	if needIdle {
		anim := <-s.loader.LoadAsync(ctx, s.animationURL)
		if anim.Err != nil {
			s.logger.Warn("idle animation unavailable, avatar stays static", "url", loader.DisplayLocation(s.animationURL), "error", anim.Err)
		} else {
			s.startIdle(anim.Model)
		}
	}

	res := <-avatarDone
	if res.Err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return fmt.Errorf("failed to load default avatar: %w", res.Err)
	}
	return nil
}

// track registers a swap with Close and ties ctx to the session's lifetime. The returned
// done func must be called once the swap has finished.
func (s *session) track(ctx context.Context) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, ErrClosed
	}
	s.swaps.Add(1)

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
		s.swaps.Done()
	}, nil
}

// startIdle retargets the first clip of m and plays it looping. The animation asset's own
// meshes are released; only the clip is kept.
func (s *session) startIdle(m model.Model) {
	defer m.Release()

	var clip *model.AnimationClip
	if clips := m.Animations(); len(clips) > 0 {
		filtered, err := clips[0].Filter(model.RetargetFilter(s.rootJoint))
		if err != nil {
			s.logger.Warn("failed to filter idle clip", "clip", clips[0].Name, "error", err)
		} else {
			clip = filtered
		}
	}

	action := s.animator.Bind(clip)
	action.SetLoop(true)
	action.Play()

	s.mu.Lock()
	s.idle = action
	s.mu.Unlock()

	if clip != nil {
		s.logger.Info("idle animation playing", "clip", clip.Name, "tracks", len(clip.Tracks), "duration", clip.Duration)
	}
}

func (s *session) Tick(dt float32) error {
	s.frame.Lock()
	defer s.frame.Unlock()
	return s.animator.Tick(dt)
}

func (s *session) OnExportCompleted(url string) {
	ctx, done, err := s.track(s.ctx)
	if err != nil {
		s.logger.Debug("export ignored after close", "url", loader.DisplayLocation(url))
		return
	}

	go func() {
		defer done()
		if _, err := s.slot.SetAvatar(ctx, url); err != nil {
			s.logger.Error("avatar swap failed", "url", loader.DisplayLocation(url), "error", err)
		}
	}()
}

func (s *session) SetAvatar(ctx context.Context, url string) (*avatar.Handle, error) {
	ctx, done, err := s.track(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return s.slot.SetAvatar(ctx, url)
}

func (s *session) Active() *avatar.Handle {
	return s.slot.Active()
}

func (s *session) ActiveRoot() scene.Node {
	return s.slot.ActiveRoot()
}

func (s *session) OpenSurface(ctx context.Context) error {
	if s.widget != nil {
		return s.widget.Open(ctx)
	}
	s.surface.Open()
	return nil
}

func (s *session) CloseSurface() {
	s.surface.Close()
}

func (s *session) Surface() bridge.Surface {
	return s.surface
}

func (s *session) Scene() scene.Scene {
	return s.scene
}

func (s *session) Animator() animator.Animator {
	return s.animator
}

func (s *session) Slot() avatar.Slot {
	return s.slot
}

func (s *session) Messages() bridge.MessageTransport {
	return s.messages
}

func (s *session) Idle() animator.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

func (s *session) Wait() {
	s.swaps.Wait()
}

func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.swaps.Wait()
	s.slot.Clear()
	s.surface.Close()
	return nil
}

func (s *session) logSwap(old, next *avatar.Handle) {
	if old == nil {
		s.logger.Info("avatar ready", "url", loader.DisplayLocation(next.URL()), "id", next.ID())
		return
	}
	s.logger.Info("avatar replaced", "url", loader.DisplayLocation(next.URL()), "id", next.ID(), "previous", old.ID())
}
