package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor defines the interface for extracting mesh data from a parsed glTF document.
// It converts raw glTF accessor data into ImportedMesh structs ready to be staged on a provider.
type gltfMeshExtractor interface {
	// ExtractMesh extracts a single mesh by index.
	// Returns one ImportedMesh per triangle primitive; other topologies are skipped.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//
	// Returns:
	//   - []model.ImportedMesh: one ImportedMesh per primitive
	//   - error: error if extraction fails
	ExtractMesh(meshIndex int) ([]model.ImportedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) ([]model.ImportedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	name := mesh.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", meshIndex)
	}

	var result []model.ImportedMesh
	for primIdx := range mesh.Primitives {
		prim := &mesh.Primitives[primIdx]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			continue
		}

		imported, err := e.extractPrimitive(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
		imported.Name = name
		if primIdx > 0 {
			imported.Name = fmt.Sprintf("%s_prim%d", name, primIdx)
		}
		result = append(result, *imported)
	}

	return result, nil
}

// extractPrimitive extracts a single triangle primitive as an ImportedMesh.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive) (*model.ImportedMesh, error) {
	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadFloats(posAccessor, gltfAccessorTypeVec3)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	vertexCount := len(positions) / 3
	vertices := make([]model.GPUVertex, vertexCount)
	for i := range vertices {
		copy(vertices[i].Position[:], positions[i*3:i*3+3])
	}

	hasNormals := false
	if normalAccessor, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := e.parser.ReadFloats(normalAccessor, gltfAccessorTypeVec3)
		if err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
		for i := 0; i < vertexCount && i*3+3 <= len(normals); i++ {
			copy(vertices[i].Normal[:], normals[i*3:i*3+3])
		}
		hasNormals = true
	}

	if texCoordAccessor, ok := prim.Attributes["TEXCOORD_0"]; ok {
		texCoords, err := e.parser.ReadFloats(texCoordAccessor, gltfAccessorTypeVec2)
		if err != nil {
			return nil, fmt.Errorf("failed to read texcoords: %w", err)
		}
		for i := 0; i < vertexCount && i*2+2 <= len(texCoords); i++ {
			copy(vertices[i].TexCoord[:], texCoords[i*2:i*2+2])
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = e.parser.ReadIndices(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	if !hasNormals && len(indices) >= 3 {
		generateNormals(vertices, indices)
	}

	bmin, bmax := gltfCalculateBoundingBox(vertices)
	return &model.ImportedMesh{
		Vertices:    vertices,
		Indices:     indices,
		BoundingMin: bmin,
		BoundingMax: bmax,
	}, nil
}

// gltfCalculateBoundingBox computes the axis-aligned bounding box of the vertex positions.
func gltfCalculateBoundingBox(vertices []model.GPUVertex) ([3]float32, [3]float32) {
	if len(vertices) == 0 {
		return [3]float32{}, [3]float32{}
	}

	bmin := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	bmax := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, v := range vertices {
		for j := 0; j < 3; j++ {
			bmin[j] = min(bmin[j], v.Position[j])
			bmax[j] = max(bmax[j], v.Position[j])
		}
	}
	return bmin, bmax
}

// generateNormals computes smooth vertex normals when the primitive carries none. Face normals
// are accumulated area-weighted onto each vertex of the triangle and normalized at the end.
func generateNormals(vertices []model.GPUVertex, indices []uint32) {
	n := uint32(len(vertices))
	accum := make([]mgl32.Vec3, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}

		p0 := mgl32.Vec3(vertices[i0].Position)
		edge1 := mgl32.Vec3(vertices[i1].Position).Sub(p0)
		edge2 := mgl32.Vec3(vertices[i2].Position).Sub(p0)
		face := edge1.Cross(edge2)

		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}

	for i := range accum {
		if accum[i].Len() < 1e-6 {
			vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		vertices[i].Normal = [3]float32(accum[i].Normalize())
	}
}
