package loader

import (
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
)

// importedAsset is the format-neutral result of a backend import. The loader turns it into a
// model.Model by staging each mesh on its own provider.
type importedAsset struct {
	// Name is the name of the root node.
	Name string

	// Root is the top of the imported node hierarchy.
	Root scene.Node

	// Meshes are the mesh primitives referenced by the hierarchy.
	Meshes []importedMeshInstance

	// Animations are all animation clips bundled with the asset.
	Animations []*model.AnimationClip
}

// loaderBackend defines the generic interface for decoding a fetched payload.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Decode imports an asset from a payload.
	//
	// Parameters:
	//   - data: the complete payload
	//   - format: the container format detected for the payload
	//   - name: the name given to the asset's root node
	//   - resolve: resolves external resources referenced by the payload, may be nil
	//
	// Returns:
	//   - *importedAsset: the imported asset
	//   - error: error if decoding fails
	Decode(data []byte, format payloadFormat, name string, resolve uriResolver) (*importedAsset, error)
}
