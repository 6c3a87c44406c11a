package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-avatar/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultClearColor is the light grey studio background.
var DefaultClearColor = [4]float64{0.75, 0.75, 0.75, 1}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	clearColor           [4]float64
}

// Renderer owns the GPU device and the window surface.
//
// The device is shared with the asset loader so avatar mesh buffers are uploaded to the same GPU
// the frames are presented on. Each frame is a single clear pass; a frame started with BeginFrame
// must be finished with EndFrame and Present.
type Renderer interface {
	// Device returns the GPU device mesh buffers are created on.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes how frames are delivered and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the next surface texture and opens the frame's render pass.
	//
	// Returns:
	//   - error: if no surface texture could be acquired
	BeginFrame() error

	// EndFrame closes the render pass and submits it to the GPU queue.
	EndFrame()

	// Present shows the finished frame.
	Present()

	// Release frees the device, surface and instance. The renderer must not be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer for win using the selected backend.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - win: the window to present into
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer with its surface configured to the window size
//   - error: if no adapter or device could be acquired
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		backendType: backendType,
		presentMode: PresentModeVSync,
		clearColor:  DefaultClearColor,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	desc := win.SurfaceDescriptor()
	if desc == nil {
		return nil, fmt.Errorf("window has no surface")
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		backend, err := newWGPURendererBackend(desc, r.forceFallbackAdapter, r.clearColor)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	}

	r.backend.SetPresentMode(r.presentMode)
	r.backend.ConfigureSurface(win.Width(), win.Height())
	return r, nil
}

func (r *renderer) Device() *wgpu.Device {
	return r.backend.Device()
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.backend.Release()
}
