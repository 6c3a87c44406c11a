package loader

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and all extractors to produce an importedAsset.
type gltfImporter interface {
	// Import decodes a glTF JSON or GLB payload and extracts its hierarchy, meshes and animations.
	//
	// Parameters:
	//   - data: the complete payload
	//   - glb: true if the payload is in GLB container format
	//   - name: the name given to the asset's root node
	//   - resolve: resolves external buffer URIs, may be nil
	//
	// Returns:
	//   - *importedAsset: the imported asset
	//   - error: error if import fails
	Import(data []byte, glb bool, name string, resolve uriResolver) (*importedAsset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(data []byte, glb bool, name string, resolve uriResolver) (*importedAsset, error) {
	parser := newGLTFParser(resolve)
	if err := parser.Parse(data, glb); err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	doc := parser.Document()

	root, nodes, err := newGLTFNodeExtractor(parser).ExtractHierarchy(name)
	if err != nil {
		return nil, fmt.Errorf("hierarchy extraction failed: %w", err)
	}

	// Stage each referenced mesh once, in node order, even when several nodes instance it.
	nodeIndices := make([]int, 0, len(nodes))
	for idx := range nodes {
		nodeIndices = append(nodeIndices, idx)
	}
	sort.Ints(nodeIndices)

	meshExtractor := newGLTFMeshExtractor(parser)
	staged := make(map[int]bool)
	var meshes []importedMeshInstance
	for _, idx := range nodeIndices {
		meshIndex := doc.Nodes[idx].Mesh
		if meshIndex == nil || staged[*meshIndex] {
			continue
		}
		staged[*meshIndex] = true

		primitives, err := meshExtractor.ExtractMesh(*meshIndex)
		if err != nil {
			return nil, fmt.Errorf("mesh extraction failed: %w", err)
		}
		for _, m := range primitives {
			meshes = append(meshes, importedMeshInstance{Node: nodes[idx], Mesh: m})
		}
	}

	animations, err := newGLTFAnimationExtractor(parser).ExtractAllAnimations()
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	return &importedAsset{
		Name:       name,
		Root:       root,
		Meshes:     meshes,
		Animations: animations,
	}, nil
}

// importedMeshInstance pairs an extracted mesh primitive with the first node that renders it.
type importedMeshInstance struct {
	Node scene.Node
	Mesh model.ImportedMesh
}
