package renderer

import "fmt"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how cleared frames are handed to the window surface.
type PresentMode int

const (
	// PresentModeVSync paces presentation to the display refresh.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents as soon as a frame is ready.
	PresentModeUncapped
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	default:
		return fmt.Sprintf("PresentMode(%d)", int(m))
	}
}

// ParsePresentMode maps a config value ("vsync" or "uncapped") to a PresentMode.
//
// Parameters:
//   - s: the present mode name
//
// Returns:
//   - PresentMode: the parsed mode
//   - error: error if s names no mode
func ParsePresentMode(s string) (PresentMode, error) {
	switch s {
	case "vsync", "":
		return PresentModeVSync, nil
	case "uncapped":
		return PresentModeUncapped, nil
	}
	return PresentModeVSync, fmt.Errorf("unknown present mode %q", s)
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
