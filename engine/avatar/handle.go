package avatar

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
)

// Handle is one loaded avatar instance. A Handle is created by a successful SetAvatar and
// disposed by the Slot once a newer avatar has replaced it.
type Handle struct {
	mu sync.Mutex

	id    uint64
	url   string
	model model.Model

	member   bool
	disposed bool
}

func newHandle(id uint64, url string, m model.Model) *Handle {
	return &Handle{id: id, url: url, model: m}
}

// ID returns the request number that produced this handle. IDs increase in request order,
// not completion order.
//
// Returns:
//   - uint64: the handle id
func (h *Handle) ID() uint64 {
	return h.id
}

// URL returns the location the avatar was loaded from.
//
// Returns:
//   - string: the source location
func (h *Handle) URL() string {
	return h.url
}

// Model returns the loaded model backing this handle.
//
// Returns:
//   - model.Model: the model
func (h *Handle) Model() model.Model {
	return h.model
}

// Root returns the top node of the avatar's hierarchy.
//
// Returns:
//   - scene.Node: the avatar root
func (h *Handle) Root() scene.Node {
	return h.model.Root()
}

// Visible reports whether the avatar root is drawn.
//
// Returns:
//   - bool: true if visible
func (h *Handle) Visible() bool {
	return h.model.Root().Visible()
}

// Member reports whether the avatar root currently receives poses from the shared animator.
//
// Returns:
//   - bool: true while joined
func (h *Handle) Member() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.member
}

// Disposed reports whether the handle's resources have been released.
//
// Returns:
//   - bool: true after Dispose
func (h *Handle) Disposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

// Dispose releases the GPU resources owned by the avatar's model. Safe to call more than once.
// The Slot only disposes a handle after it has left the animator.
func (h *Handle) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	h.mu.Unlock()

	h.model.Release()
}

func (h *Handle) setMember(member bool) {
	h.mu.Lock()
	h.member = member
	h.mu.Unlock()
}
