package bridge

import "sync"

// surface is the implementation of the Surface interface.
type surface struct {
	mu sync.RWMutex

	guarded     bool
	visible     bool
	openEnabled bool
}

// Surface is the visibility state of the area hosting the avatar tool.
//
// A guarded Surface also tracks the control that opens it: opening disables the control and
// closing enables it again, so an open widget is never initialized twice.
type Surface interface {
	// Open shows the surface. A guarded surface whose open control is disabled ignores the call.
	Open()

	// Close hides the surface and enables the open control.
	Close()

	// Visible reports whether the surface is shown.
	//
	// Returns:
	//   - bool: true when open
	Visible() bool

	// OpenEnabled reports whether the open control can be used.
	//
	// Returns:
	//   - bool: true when Open would take effect
	OpenEnabled() bool

	// Guarded reports whether Open disables the open control.
	//
	// Returns:
	//   - bool: true for widget surfaces
	Guarded() bool
}

var _ Surface = &surface{}

// NewSurface creates a hidden Surface with its open control enabled.
//
// Parameters:
//   - guarded: whether opening disables the open control
//
// Returns:
//   - Surface: a new Surface
func NewSurface(guarded bool) Surface {
	return &surface{guarded: guarded, openEnabled: true}
}

func (s *surface) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.openEnabled {
		return
	}
	s.visible = true
	if s.guarded {
		s.openEnabled = false
	}
}

func (s *surface) Close() {
	s.mu.Lock()
	s.visible = false
	s.openEnabled = true
	s.mu.Unlock()
}

func (s *surface) Visible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

func (s *surface) OpenEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openEnabled
}

func (s *surface) Guarded() bool {
	return s.guarded
}
