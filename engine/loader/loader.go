package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnsupportedFormat is wrapped by LoadError when a payload is neither glTF JSON nor GLB.
var ErrUnsupportedFormat = errors.New("unsupported asset format")

// LoadError reports a failed fetch or decode of an asset.
type LoadError struct {
	// URL is the location that was being loaded.
	URL string

	// Err is the underlying cause.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", DisplayLocation(e.URL), e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Result is the outcome of an asynchronous load.
type Result struct {
	Model model.Model
	Err   error
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	backends map[payloadFormat]loaderBackend

	client     *http.Client
	device     *wgpu.Device
	clipFilter model.TrackPredicate
	logger     *slog.Logger
	maxBytes   int64

	workers int
	pool    worker.DynamicWorkerPool
	taskID  atomic.Int64
}

// Loader defines the public-facing interface for fetching and decoding avatar assets.
// Every call produces a new, independently owned model.Model: there is no cache, because the
// caller releases each model's resources when it retires the avatar.
type Loader interface {
	// Load fetches the asset at location and decodes it into a Model.
	// Accepted locations are http(s) URLs, file URLs, data URIs and filesystem paths. The
	// container format is detected from the payload, falling back to the file extension.
	// The configured clip filter, if any, is applied to every animation clip.
	//
	// Parameters:
	//   - ctx: cancels an in-flight fetch
	//   - location: where to load the asset from
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: a *LoadError if fetching or decoding fails
	Load(ctx context.Context, location string) (model.Model, error)

	// LoadAsync runs Load on the loader's worker pool. The returned channel receives exactly one
	// Result and is then closed. Independent calls run concurrently up to the pool size.
	//
	// Parameters:
	//   - ctx: cancels an in-flight fetch
	//   - location: where to load the asset from
	//
	// Returns:
	//   - <-chan Result: delivers the outcome
	LoadAsync(ctx context.Context, location string) <-chan Result

	// SetClipFilter replaces the track filter applied to clips at load time. Nil disables filtering.
	//
	// Parameters:
	//   - keep: the track predicate
	SetClipFilter(keep model.TrackPredicate)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	gltf := newGLTFLoaderBackend()
	l := &loader{
		backends: map[payloadFormat]loaderBackend{
			formatGLB:  gltf,
			formatGLTF: gltf,
		},
		client:  http.DefaultClient,
		logger:  slog.Default(),
		workers: 2,
	}

	for _, option := range options {
		option(l)
	}

	// Workers idle-exit after a second so a quiet loader holds no goroutines.
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

func (l *loader) Load(ctx context.Context, location string) (model.Model, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, &LoadError{URL: location, Err: err}
	}

	src, err := l.fetch(ctx, location)
	if err != nil {
		return nil, &LoadError{URL: location, Err: err}
	}

	format := sniffFormat(src.data, location)
	backend, ok := l.backends[format]
	if !ok {
		return nil, &LoadError{URL: location, Err: fmt.Errorf("%w: %d bytes", ErrUnsupportedFormat, len(src.data))}
	}

	asset, err := backend.Decode(src.data, format, assetName(location), src.resolve)
	if err != nil {
		return nil, &LoadError{URL: location, Err: err}
	}

	m, err := l.importedToModel(asset, location)
	if err != nil {
		return nil, &LoadError{URL: location, Err: err}
	}

	l.logger.Debug("asset loaded",
		"url", DisplayLocation(location),
		"format", format.String(),
		"meshes", len(m.Providers()),
		"clips", m.AnimationCount(),
		"elapsed", time.Since(start),
	)
	return m, nil
}

func (l *loader) LoadAsync(ctx context.Context, location string) <-chan Result {
	out := make(chan Result, 1)
	l.pool.SubmitTask(worker.Task{
		ID: int(l.taskID.Add(1)),
		Do: func() (any, error) {
			defer close(out)
			m, err := l.Load(ctx, location)
			out <- Result{Model: m, Err: err}
			return m, err
		},
	})
	return out
}

func (l *loader) SetClipFilter(keep model.TrackPredicate) {
	l.mu.Lock()
	l.clipFilter = keep
	l.mu.Unlock()
}

// importedToModel filters the asset's clips and stages each mesh on its own provider.
func (l *loader) importedToModel(asset *importedAsset, location string) (model.Model, error) {
	l.mu.RLock()
	keep := l.clipFilter
	device := l.device
	l.mu.RUnlock()

	clips := asset.Animations
	if keep != nil {
		clips = make([]*model.AnimationClip, 0, len(asset.Animations))
		for _, clip := range asset.Animations {
			filtered, err := clip.Filter(keep)
			if err != nil {
				return nil, err
			}
			clips = append(clips, filtered)
		}
	}

	providers := make([]bind_group_provider.BindGroupProvider, 0, len(asset.Meshes))
	release := func() {
		for _, p := range providers {
			p.Release()
		}
	}
	for _, inst := range asset.Meshes {
		p := bind_group_provider.NewBindGroupProvider(
			inst.Node.Name()+"/"+inst.Mesh.Name,
			bind_group_provider.WithVertexData(model.MarshalVertices(inst.Mesh.Vertices)),
			bind_group_provider.WithIndexData(model.MarshalIndices(inst.Mesh.Indices), len(inst.Mesh.Indices)),
		)
		providers = append(providers, p)

		if device != nil {
			if err := p.Upload(device); err != nil {
				release()
				return nil, err
			}
		}
	}

	return model.NewModel(
		model.WithName(asset.Name),
		model.WithSource(location),
		model.WithRoot(asset.Root),
		model.WithAnimations(clips),
		model.WithProviders(providers...),
	), nil
}

// assetName derives the root node name from a location: the file name without extension, or
// "inline" for data URIs.
func assetName(location string) string {
	if strings.HasPrefix(location, "data:") {
		return "inline"
	}
	base := path.Base(stripQuery(strings.ReplaceAll(location, "\\", "/")))
	if name := strings.TrimSuffix(base, path.Ext(base)); name != "" && name != "." && name != "/" {
		return name
	}
	return "avatar"
}

// DisplayLocation shortens data URIs so they do not flood logs, spans and error messages.
// Other locations are returned unchanged.
//
// Parameters:
//   - location: an asset location as passed to Load
//
// Returns:
//   - string: the location, truncated when it is a long data URI
func DisplayLocation(location string) string {
	if strings.HasPrefix(location, "data:") && len(location) > 48 {
		return location[:48] + "..."
	}
	return location
}
