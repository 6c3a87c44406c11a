package scene

import (
	"sync"
)

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	root   Node
}

// Scene is the top of a scene graph. Avatar roots and other renderable subtrees are
// attached directly under the scene's Root node. The renderer walks Root to find
// what is currently part of the scene; attachment is owned by whoever calls Attach.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Root returns the scene's root node.
	//
	// Returns:
	//   - Node: the root node
	Root() Node

	// Attach adds n as a direct child of the scene root, detaching it from any
	// previous parent. No-op for nil.
	//
	// Parameters:
	//   - n: the subtree to attach
	Attach(n Node)

	// Detach removes n from the scene root. No-op if n is not directly attached.
	//
	// Parameters:
	//   - n: the subtree to detach
	Detach(n Node)

	// Contains reports whether n is directly attached to the scene root.
	//
	// Parameters:
	//   - n: the subtree to check
	//
	// Returns:
	//   - bool: true if attached
	Contains(n Node) bool

	// Count returns the number of subtrees directly attached to the scene root.
	//
	// Returns:
	//   - int: the attached subtree count
	Count() int

	// VisibleRoots returns the attached subtrees whose root node is visible, in attach order.
	//
	// Returns:
	//   - []Node: the visible attached subtrees
	VisibleRoots() []Node
}

var _ Scene = &scene{}

// NewScene creates a new, inactive Scene with an empty root node.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:   &sync.RWMutex{},
		name: name,
		root: NewNode(name + "_root"),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Root() Node {
	return s.root
}

func (s *scene) Attach(n Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Add(n)
}

func (s *scene) Detach(n Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Remove(n)
}

func (s *scene) Contains(n Node) bool {
	if n == nil {
		return false
	}
	return n.Parent() == s.root
}

func (s *scene) Count() int {
	return len(s.root.Children())
}

func (s *scene) VisibleRoots() []Node {
	var out []Node
	for _, c := range s.root.Children() {
		if c.Visible() {
			out = append(out, c)
		}
	}
	return out
}
