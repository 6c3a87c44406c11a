package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/common"
)

// Transform represents a decomposed local transform of a Node.
type Transform struct {
	// Translation is the position offset relative to the parent.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a Transform with no translation, no rotation and unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: common.IdentityRotation,
		Scale:    common.UnitScale,
	}
}

// node is the implementation of the Node interface.
type node struct {
	mu sync.RWMutex

	name      string
	parent    Node
	children  []Node
	visible   bool
	transform Transform
}

// Node defines a single element of the scene graph. A Node has a name, a local
// transform, a visibility flag and an ordered list of children. Avatar roots, joints
// and mesh holders are all Nodes; the animator addresses joints by Name.
// Thread-safe for concurrent access.
type Node interface {
	// Name returns the node's identifier.
	//
	// Returns:
	//   - string: the node name
	Name() string

	// Parent returns the node this node is attached to, or nil for a detached node.
	//
	// Returns:
	//   - Node: the parent or nil
	Parent() Node

	// Children returns a copy of the node's children in insertion order.
	//
	// Returns:
	//   - []Node: the children
	Children() []Node

	// Add attaches child to this node, removing it from its previous parent first.
	// Adding a node to itself or adding nil is a no-op.
	//
	// Parameters:
	//   - child: the node to attach
	Add(child Node)

	// Remove detaches child from this node. No-op if child is not a direct child.
	//
	// Parameters:
	//   - child: the node to detach
	Remove(child Node)

	// RemoveFromParent detaches this node from its parent, if any.
	RemoveFromParent()

	// Visible reports whether the node should be drawn.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// SetVisible sets whether the node should be drawn.
	//
	// Parameters:
	//   - visible: true to draw the node
	SetVisible(visible bool)

	// Transform returns the node's local transform.
	//
	// Returns:
	//   - Transform: the local transform
	Transform() Transform

	// SetTransform replaces the node's local transform.
	//
	// Parameters:
	//   - t: the new local transform
	SetTransform(t Transform)

	// SetTranslation replaces the translation component of the local transform.
	//
	// Parameters:
	//   - t: the translation
	SetTranslation(t [3]float32)

	// SetRotation replaces the rotation component of the local transform.
	//
	// Parameters:
	//   - q: the rotation quaternion (x, y, z, w)
	SetRotation(q [4]float32)

	// SetScale replaces the scale component of the local transform.
	//
	// Parameters:
	//   - s: the scale
	SetScale(s [3]float32)

	// Find returns the first node named name in a depth-first, pre-order walk of this
	// subtree (including this node), or nil when there is no match.
	//
	// Parameters:
	//   - name: the node name to look for
	//
	// Returns:
	//   - Node: the matching node or nil
	Find(name string) Node

	// Traverse calls fn for this node and every descendant in depth-first pre-order.
	//
	// Parameters:
	//   - fn: the visitor
	Traverse(fn func(Node))

	// LocalMatrix returns the column-major matrix of the local transform.
	//
	// Returns:
	//   - [16]float32: the local matrix
	LocalMatrix() [16]float32

	// WorldMatrix returns the column-major matrix of this node relative to the top of
	// its parent chain.
	//
	// Returns:
	//   - [16]float32: the world matrix
	WorldMatrix() [16]float32

	setParent(p Node)
}

var _ Node = &node{}

// NewNode creates a new Node with the specified options applied. Nodes start visible
// with an identity transform.
//
// Parameters:
//   - name: the node name
//   - options: a variadic list of NodeBuilderOption functions to configure the Node
//
// Returns:
//   - Node: a new detached Node
func NewNode(name string, options ...NodeBuilderOption) Node {
	n := &node{
		name:      name,
		visible:   true,
		transform: IdentityTransform(),
	}
	for _, opt := range options {
		opt(n)
	}
	return n
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Parent() Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

func (n *node) Children() []Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *node) Add(child Node) {
	if child == nil || child == Node(n) {
		return
	}
	child.RemoveFromParent()

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()

	child.setParent(n)
}

func (n *node) Remove(child Node) {
	if child == nil {
		return
	}

	n.mu.Lock()
	removed := false
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			removed = true
			break
		}
	}
	n.mu.Unlock()

	if removed {
		child.setParent(nil)
	}
}

func (n *node) RemoveFromParent() {
	if p := n.Parent(); p != nil {
		p.Remove(n)
	}
}

func (n *node) Visible() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.visible
}

func (n *node) SetVisible(visible bool) {
	n.mu.Lock()
	n.visible = visible
	n.mu.Unlock()
}

func (n *node) Transform() Transform {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.transform
}

func (n *node) SetTransform(t Transform) {
	n.mu.Lock()
	n.transform = t
	n.mu.Unlock()
}

func (n *node) SetTranslation(t [3]float32) {
	n.mu.Lock()
	n.transform.Translation = t
	n.mu.Unlock()
}

func (n *node) SetRotation(q [4]float32) {
	n.mu.Lock()
	n.transform.Rotation = q
	n.mu.Unlock()
}

func (n *node) SetScale(s [3]float32) {
	n.mu.Lock()
	n.transform.Scale = s
	n.mu.Unlock()
}

func (n *node) Find(name string) Node {
	if n.name == name {
		return n
	}
	for _, c := range n.Children() {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *node) Traverse(fn func(Node)) {
	fn(n)
	for _, c := range n.Children() {
		c.Traverse(fn)
	}
}

func (n *node) LocalMatrix() [16]float32 {
	t := n.Transform()
	var m [16]float32
	common.ComposeTRS(m[:], t.Translation, t.Rotation, t.Scale)
	return m
}

func (n *node) WorldMatrix() [16]float32 {
	local := n.LocalMatrix()
	p := n.Parent()
	if p == nil {
		return local
	}
	parentWorld := p.WorldMatrix()
	var out [16]float32
	common.Mul4(out[:], parentWorld[:], local[:])
	return out
}

func (n *node) setParent(p Node) {
	n.mu.Lock()
	n.parent = p
	n.mu.Unlock()
}
