package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
)

// model is the implementation of the Model interface.
type model struct {
	mu sync.RWMutex

	name       string
	source     string
	root       scene.Node
	animations []*AnimationClip
	providers  []bind_group_provider.BindGroupProvider
	released   bool
}

// Model defines the interface for a loaded avatar asset.
// A Model is the container produced by the Loader: a scene.Node hierarchy ready to be attached
// to a scene, the animation clips bundled with the asset, and one BindGroupProvider per mesh
// holding the render resources that must be released when the model is retired.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Source returns the URL or path the model was loaded from.
	//
	// Returns:
	//   - string: the source location
	Source() string

	// Root returns the top node of the model's hierarchy.
	//
	// Returns:
	//   - scene.Node: the root node
	Root() scene.Node

	// Animations retrieves all animation clips bundled with this model.
	//
	// Returns:
	//   - []*AnimationClip: the animation clips
	Animations() []*AnimationClip

	// AnimationCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the animation count
	AnimationCount() int

	// AnimationNames returns the names of all animation clips.
	//
	// Returns:
	//   - []string: the animation clip names
	AnimationNames() []string

	// GetAnimationIndex returns the index of an animation by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the animation clip name to search for
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	GetAnimationIndex(name string) int

	// Providers returns the per-mesh render resource holders.
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: the providers
	Providers() []bind_group_provider.BindGroupProvider

	// Release releases every provider owned by the model. Subsequent calls are no-ops.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true once released
	Released() bool
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// A model without a WithRoot option gets an empty root node named after the model.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.root == nil {
		m.root = scene.NewNode(m.name)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Source() string {
	return m.source
}

func (m *model) Root() scene.Node {
	return m.root
}

func (m *model) Animations() []*AnimationClip {
	return m.animations
}

func (m *model) AnimationCount() int {
	return len(m.animations)
}

func (m *model) AnimationNames() []string {
	names := make([]string, len(m.animations))
	for i, anim := range m.animations {
		names[i] = anim.Name
	}
	return names
}

func (m *model) GetAnimationIndex(name string) int {
	for i, anim := range m.animations {
		if anim.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) Providers() []bind_group_provider.BindGroupProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers
}

func (m *model) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return
	}
	m.released = true
	for _, p := range m.providers {
		if p != nil {
			p.Release()
		}
	}
}

func (m *model) Released() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.released
}
