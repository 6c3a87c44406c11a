package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-avatar/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfNodeExtractorImpl is the implementation of the gltfNodeExtractor interface.
type gltfNodeExtractorImpl struct {
	parser gltfParser
}

// gltfNodeExtractor builds a scene.Node hierarchy from the glTF node graph.
// Node names are preserved so animation tracks can address joints by name.
type gltfNodeExtractor interface {
	// ExtractHierarchy creates a new root node named rootName and attaches the root nodes of the
	// document's default scene under it. Documents without scenes attach every parentless node.
	//
	// Parameters:
	//   - rootName: the name of the synthetic root node
	//
	// Returns:
	//   - scene.Node: the root of the hierarchy
	//   - map[int]scene.Node: glTF node index to created node, for mesh and animation binding
	//   - error: error if the node graph is malformed
	ExtractHierarchy(rootName string) (scene.Node, map[int]scene.Node, error)
}

var _ gltfNodeExtractor = &gltfNodeExtractorImpl{}

// newGLTFNodeExtractor creates a new node extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfNodeExtractor: the node extractor
func newGLTFNodeExtractor(parser gltfParser) gltfNodeExtractor {
	return &gltfNodeExtractorImpl{parser: parser}
}

func (e *gltfNodeExtractorImpl) ExtractHierarchy(rootName string) (scene.Node, map[int]scene.Node, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, errNoDocument
	}

	root := scene.NewNode(rootName)
	created := make(map[int]scene.Node, len(doc.Nodes))

	var build func(index int) (scene.Node, error)
	build = func(index int) (scene.Node, error) {
		if index < 0 || index >= len(doc.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", index)
		}
		if _, seen := created[index]; seen {
			return nil, fmt.Errorf("node %d appears more than once in the hierarchy", index)
		}

		src := &doc.Nodes[index]
		n := scene.NewNode(gltfNodeName(doc, index), scene.WithTransform(gltfNodeTransform(src)))
		created[index] = n

		for _, child := range src.Children {
			c, err := build(child)
			if err != nil {
				return nil, err
			}
			n.Add(c)
		}
		return n, nil
	}

	for _, index := range gltfSceneRoots(doc) {
		n, err := build(index)
		if err != nil {
			return nil, nil, err
		}
		root.Add(n)
	}

	return root, created, nil
}

// --- Helper Functions ---

// gltfNodeName returns the node's name, or a stable positional name for unnamed nodes.
func gltfNodeName(doc *gltfDocument, index int) string {
	if index >= 0 && index < len(doc.Nodes) && doc.Nodes[index].Name != "" {
		return doc.Nodes[index].Name
	}
	return fmt.Sprintf("node_%d", index)
}

// gltfSceneRoots returns the root node indices of the default scene. Without a scenes array
// every node that is nobody's child is a root.
func gltfSceneRoots(doc *gltfDocument) []int {
	if len(doc.Scenes) > 0 {
		sceneIndex := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			sceneIndex = *doc.Scene
		}
		return doc.Scenes[sceneIndex].Nodes
	}

	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// gltfNodeTransform extracts the local TRS transform of a glTF node.
func gltfNodeTransform(node *gltfNode) scene.Transform {
	if node.Matrix != nil {
		return gltfDecomposeMatrix(mgl32.Mat4(*node.Matrix))
	}

	t := scene.IdentityTransform()
	if node.Translation != nil {
		t.Translation = *node.Translation
	}
	if node.Rotation != nil {
		t.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		t.Scale = *node.Scale
	}
	return t
}

// gltfDecomposeMatrix decomposes a column-major matrix into translation, rotation and scale.
// Shear is not representable and is discarded.
func gltfDecomposeMatrix(m mgl32.Mat4) scene.Transform {
	var t scene.Transform
	t.Translation = [3]float32(m.Col(3).Vec3())

	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	t.Scale = [3]float32{sx, sy, sz}

	safe := func(s float32) float32 {
		if s < 0.0001 {
			return 1
		}
		return s
	}
	rot := mgl32.Mat4FromCols(
		m.Col(0).Mul(1/safe(sx)),
		m.Col(1).Mul(1/safe(sy)),
		m.Col(2).Mul(1/safe(sz)),
		mgl32.Vec4{0, 0, 0, 1},
	)

	q := mgl32.Mat4ToQuat(rot).Normalize()
	t.Rotation = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
	return t
}
