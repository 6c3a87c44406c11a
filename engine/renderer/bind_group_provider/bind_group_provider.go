package bind_group_provider

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrReleased is returned when a released provider is asked to upload its data.
var ErrReleased = errors.New("bind group provider already released")

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu sync.Mutex

	// label is a debug label added for convenience.
	label string

	// The following fields hold the mesh data staged by the loader. They are kept on the CPU until
	// Upload is called, and dropped on Release.

	vertexData []byte
	indexData  []byte
	// indexCount is the number of indices described by indexData.
	indexCount int

	// The following fields are GPU allocated resources and must be released when no longer needed.

	// vertexBuffer is the GPU vertex buffer created by Upload, or nil if the data was never uploaded.
	vertexBuffer *wgpu.Buffer
	// indexBuffer is the GPU index buffer created by Upload, or nil if the data was never uploaded.
	indexBuffer *wgpu.Buffer

	released bool
}

// BindGroupProvider owns the render resources of one mesh of a loaded avatar.
// The loader stages the mesh's vertex and index bytes on a provider and, when a GPU device is
// available, uploads them into vertex and index buffers. The owning avatar handle calls Release
// when the avatar is retired, which frees the GPU buffers and drops the staged bytes.
//
// Usage pattern:
//  1. Loader creates a provider per mesh with WithVertexData / WithIndexData
//  2. Loader optionally calls Upload(device) to create GPU buffers
//  3. The model keeps the provider for as long as its avatar is alive
//  4. Handle.Dispose calls Release exactly once per provider
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// VertexData returns the staged vertex bytes, or nil after Release.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the staged index bytes, or nil after Release.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices for draw calls.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// StagedBytes returns the total number of CPU bytes held by this provider.
	//
	// Returns:
	//   - int: the staged byte count
	StagedBytes() int

	// VertexBuffer returns the GPU vertex buffer, or nil if not uploaded.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer, or nil if not uploaded.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer or nil
	IndexBuffer() *wgpu.Buffer

	// Upload creates GPU vertex and index buffers from the staged data on the given device.
	// Calling Upload on an already uploaded provider is a no-op.
	//
	// Parameters:
	//   - device: the GPU device to allocate the buffers on
	//
	// Returns:
	//   - error: ErrReleased if the provider was released, or an error if a buffer could not be created
	Upload(device *wgpu.Device) error

	// Uploaded reports whether GPU buffers currently exist for this provider.
	//
	// Returns:
	//   - bool: true if at least one GPU buffer is held
	Uploaded() bool

	// Release releases any GPU resources held by this provider and drops the staged data.
	// Subsequent calls are no-ops.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true once released
	Released() bool
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label: label,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) VertexData() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vertexData
}

func (p *bindGroupProvider) IndexData() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indexData
}

func (p *bindGroupProvider) IndexCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indexCount
}

func (p *bindGroupProvider) StagedBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.vertexData) + len(p.indexData)
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indexBuffer
}

func (p *bindGroupProvider) Upload(device *wgpu.Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return ErrReleased
	}
	if device == nil || p.vertexBuffer != nil || p.indexBuffer != nil {
		return nil
	}

	queue := device.GetQueue()

	if len(p.vertexData) > 0 {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            p.label + " Vertex Buffer",
			Size:             uint64(len(p.vertexData)),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return fmt.Errorf("failed to create vertex buffer for %s: %w", p.label, err)
		}
		queue.WriteBuffer(buf, 0, p.vertexData)
		p.vertexBuffer = buf
	}

	if len(p.indexData) > 0 {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            p.label + " Index Buffer",
			Size:             uint64(len(p.indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			if p.vertexBuffer != nil {
				p.vertexBuffer.Release()
				p.vertexBuffer = nil
			}
			return fmt.Errorf("failed to create index buffer for %s: %w", p.label, err)
		}
		queue.WriteBuffer(buf, 0, p.indexData)
		p.indexBuffer = buf
	}

	return nil
}

func (p *bindGroupProvider) Uploaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vertexBuffer != nil || p.indexBuffer != nil
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return
	}
	p.released = true

	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.vertexData = nil
	p.indexData = nil
}

func (p *bindGroupProvider) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}
