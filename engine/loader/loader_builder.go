package loader

import (
	"log/slog"
	"net/http"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDevice is an option builder that sets the GPU device mesh data is uploaded to.
// Without a device, mesh data stays staged on the CPU.
//
// Parameters:
//   - device: the GPU device
//
// Returns:
//   - LoaderBuilderOption: a function that applies the device option to a loader
func WithDevice(device *wgpu.Device) LoaderBuilderOption {
	return func(l *loader) {
		l.device = device
	}
}

// WithClipFilter is an option builder that sets the track filter applied to every loaded clip.
//
// Parameters:
//   - keep: the track predicate, e.g. model.RetargetFilter("Hips")
//
// Returns:
//   - LoaderBuilderOption: a function that applies the clip filter option to a loader
func WithClipFilter(keep model.TrackPredicate) LoaderBuilderOption {
	return func(l *loader) {
		l.clipFilter = keep
	}
}

// WithLogger is an option builder that sets the structured logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithWorkers is an option builder that sets how many loads may run concurrently through LoadAsync.
//
// Parameters:
//   - n: the worker count, values below 1 are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the workers option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithHTTPClient is an option builder that sets the client used for http(s) locations.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client option to a loader
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithMaxBytes is an option builder that caps the size of a downloaded asset.
//
// Parameters:
//   - n: the byte limit, 0 for no limit
//
// Returns:
//   - LoaderBuilderOption: a function that applies the limit to a loader
func WithMaxBytes(n int64) LoaderBuilderOption {
	return func(l *loader) {
		l.maxBytes = n
	}
}
