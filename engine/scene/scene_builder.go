package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithNodes attaches initial subtrees (ground plane, props) to the scene root.
//
// Parameters:
//   - nodes: the subtrees to attach
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithNodes(nodes ...Node) SceneBuilderOption {
	return func(s *scene) {
		for _, n := range nodes {
			s.root.Add(n)
		}
	}
}

// NodeBuilderOption is a functional option for configuring a Node via NewNode.
type NodeBuilderOption func(*node)

// WithTransform is an option builder that sets the initial local transform of the Node.
//
// Parameters:
//   - t: the local transform
//
// Returns:
//   - NodeBuilderOption: a function that applies the transform option to a node
func WithTransform(t Transform) NodeBuilderOption {
	return func(n *node) {
		n.transform = t
	}
}

// WithVisible is an option builder that sets the initial visibility of the Node.
//
// Parameters:
//   - visible: true to draw the node
//
// Returns:
//   - NodeBuilderOption: a function that applies the visibility option to a node
func WithVisible(visible bool) NodeBuilderOption {
	return func(n *node) {
		n.visible = visible
	}
}

// WithChildren is an option builder that attaches children to the Node at construction.
//
// Parameters:
//   - children: the nodes to attach
//
// Returns:
//   - NodeBuilderOption: a function that applies the children option to a node
func WithChildren(children ...Node) NodeBuilderOption {
	return func(n *node) {
		for _, c := range children {
			n.Add(c)
		}
	}
}
