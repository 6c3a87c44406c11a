package loader

import (
	"bytes"
	"encoding/binary"
	"path"
	"strings"

	"github.com/h2non/filetype"
)

// payloadFormat identifies the container format of a fetched asset.
type payloadFormat int

const (
	formatUnknown payloadFormat = iota
	formatGLB
	formatGLTF
)

func (f payloadFormat) String() string {
	switch f {
	case formatGLB:
		return "glb"
	case formatGLTF:
		return "gltf"
	default:
		return "unknown"
	}
}

var (
	glbType  = filetype.NewType("glb", "model/gltf-binary")
	gltfType = filetype.NewType("gltf", "model/gltf+json")
)

func init() {
	filetype.AddMatcher(glbType, func(buf []byte) bool {
		return len(buf) >= 4 && binary.LittleEndian.Uint32(buf) == gltfGLBMagic
	})
	filetype.AddMatcher(gltfType, func(buf []byte) bool {
		trimmed := bytes.TrimLeft(buf, " \t\r\n\ufeff")
		return len(trimmed) > 0 && trimmed[0] == '{' && bytes.Contains(buf, []byte(`"asset"`))
	})
}

// sniffFormat detects the container format from the payload, falling back to the extension of
// location when the content is not recognised.
func sniffFormat(data []byte, location string) payloadFormat {
	if kind, err := filetype.Match(data); err == nil {
		switch kind.Extension {
		case glbType.Extension:
			return formatGLB
		case gltfType.Extension:
			return formatGLTF
		}
	}

	if strings.HasPrefix(location, "data:") {
		return formatUnknown
	}
	switch strings.ToLower(path.Ext(stripQuery(location))) {
	case ".glb", ".vrm":
		return formatGLB
	case ".gltf":
		return formatGLTF
	}
	return formatUnknown
}

// stripQuery drops a URL query string or fragment so the extension can be inspected.
func stripQuery(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		return location[:i]
	}
	return location
}
