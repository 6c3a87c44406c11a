// Package loadertest builds small in-memory glTF assets for tests of the loader and the
// packages built on top of it.
package loadertest

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"strings"
)

const (
	componentFloat         = 5126
	componentUnsignedShort = 5123
)

// RotatedY is the quaternion (x, y, z, w) of a quarter turn about +Y, used as the last
// rotation key of every fixture clip.
var RotatedY = [4]float32{0, 0.70710677, 0, 0.70710677}

type document struct {
	buf         bytes.Buffer
	nodes       []map[string]any
	nodeIndex   map[string]int
	meshes      []map[string]any
	bufferViews []map[string]any
	accessors   []map[string]any
	animations  []map[string]any
}

func newDocument() *document {
	return &document{nodeIndex: make(map[string]int)}
}

// node returns the index of the named node, creating it under parent (-1 for a root) if needed.
func (d *document) node(name string, parent int) int {
	if idx, ok := d.nodeIndex[name]; ok {
		return idx
	}
	idx := len(d.nodes)
	d.nodes = append(d.nodes, map[string]any{"name": name})
	d.nodeIndex[name] = idx
	if parent >= 0 {
		children, _ := d.nodes[parent]["children"].([]int)
		d.nodes[parent]["children"] = append(children, idx)
	}
	return idx
}

func (d *document) accessor(data any, count int, typ string, componentType int) int {
	offset := d.buf.Len()
	_ = binary.Write(&d.buf, binary.LittleEndian, data)
	length := d.buf.Len() - offset
	for d.buf.Len()%4 != 0 {
		d.buf.WriteByte(0)
	}

	d.bufferViews = append(d.bufferViews, map[string]any{
		"buffer":     0,
		"byteOffset": offset,
		"byteLength": length,
	})
	d.accessors = append(d.accessors, map[string]any{
		"bufferView":    len(d.bufferViews) - 1,
		"componentType": componentType,
		"count":         count,
		"type":          typ,
	})
	return len(d.accessors) - 1
}

func (d *document) marshal() []byte {
	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0", "generator": "loadertest"},
		"scene":  0,
		"scenes": []map[string]any{{"nodes": []int{0}}},
		"nodes":  d.nodes,
	}
	if len(d.meshes) > 0 {
		doc["meshes"] = d.meshes
	}
	if len(d.animations) > 0 {
		doc["animations"] = d.animations
	}
	if d.buf.Len() > 0 {
		doc["buffers"] = []map[string]any{{
			"byteLength": d.buf.Len(),
			"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(d.buf.Bytes()),
		}}
		doc["bufferViews"] = d.bufferViews
		doc["accessors"] = d.accessors
	}
	out, _ := json.Marshal(doc)
	return out
}

// Avatar returns a glTF JSON document with a root node named root, a chain of joints under it
// and a single-triangle mesh on a "Body" node.
//
// Parameters:
//   - root: the name of the top node
//   - joints: the joint chain, outermost first
//
// Returns:
//   - []byte: the glTF JSON payload
func Avatar(root string, joints ...string) []byte {
	d := newDocument()
	parent := d.node(root, -1)
	for _, j := range joints {
		parent = d.node(j, parent)
	}

	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	indices := []uint16{0, 1, 2, 0}
	pos := d.accessor(positions, 3, "VEC3", componentFloat)
	idx := d.accessor(indices, 3, "SCALAR", componentUnsignedShort)
	d.meshes = append(d.meshes, map[string]any{
		"name":       "BodyMesh",
		"primitives": []map[string]any{{"attributes": map[string]int{"POSITION": pos}, "indices": idx}},
	})
	body := d.node("Body", 0)
	d.nodes[body]["mesh"] = 0

	return d.marshal()
}

// Animation returns a glTF JSON document holding one clip named name. Each track is given as
// "<node>.<channel>" with channel position, quaternion or scale, and has two keys at 0 and
// duration. Position tracks move from the origin to (0, 1, 0), quaternion tracks turn from
// identity to RotatedY and scale tracks grow from 1 to 2. A track may name its sampler
// interpolation after an "@", e.g. "Hips.position@STEP"; the default is LINEAR.
//
// Parameters:
//   - name: the clip name
//   - duration: the time of the last key in seconds
//   - tracks: the track names
//
// Returns:
//   - []byte: the glTF JSON payload
func Animation(name string, duration float32, tracks ...string) []byte {
	d := newDocument()
	root := d.node("Armature", -1)
	times := d.accessor([]float32{0, duration}, 2, "SCALAR", componentFloat)

	var channels, samplers []map[string]any
	for _, track := range tracks {
		track, interpolation, found := strings.Cut(track, "@")
		if !found {
			interpolation = "LINEAR"
		}
		target, channel, _ := strings.Cut(track, ".")
		nodeIdx := d.node(target, root)

		var output int
		var path string
		switch channel {
		case "position":
			path = "translation"
			output = d.accessor([]float32{0, 0, 0, 0, 1, 0}, 2, "VEC3", componentFloat)
		case "quaternion":
			path = "rotation"
			output = d.accessor([]float32{0, 0, 0, 1, RotatedY[0], RotatedY[1], RotatedY[2], RotatedY[3]}, 2, "VEC4", componentFloat)
		case "scale":
			path = "scale"
			output = d.accessor([]float32{1, 1, 1, 2, 2, 2}, 2, "VEC3", componentFloat)
		default:
			continue
		}

		samplers = append(samplers, map[string]any{"input": times, "output": output, "interpolation": interpolation})
		channels = append(channels, map[string]any{
			"sampler": len(samplers) - 1,
			"target":  map[string]any{"node": nodeIdx, "path": path},
		})
	}

	d.animations = append(d.animations, map[string]any{
		"name":     name,
		"channels": channels,
		"samplers": samplers,
	})
	return d.marshal()
}

// GLB wraps a glTF JSON document in a GLB container with a single JSON chunk.
//
// Parameters:
//   - doc: the glTF JSON payload
//
// Returns:
//   - []byte: the GLB payload
func GLB(doc []byte) []byte {
	chunk := append([]byte(nil), doc...)
	for len(chunk)%4 != 0 {
		chunk = append(chunk, ' ')
	}

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, [3]uint32{0x46546C67, 2, uint32(12 + 8 + len(chunk))})
	_ = binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(len(chunk)), 0x4E4F534A})
	out.Write(chunk)
	return out.Bytes()
}

// DataURI encodes payload as a base64 data URI the loader accepts as a location.
//
// Parameters:
//   - payload: the asset bytes
//
// Returns:
//   - string: the data URI
func DataURI(payload []byte) string {
	return "data:model/gltf-binary;base64," + base64.StdEncoding.EncodeToString(payload)
}
