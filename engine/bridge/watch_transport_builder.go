package bridge

import (
	"log/slog"
	"time"
)

// WatchTransportBuilderOption is a functional option for configuring a WatchTransport.
type WatchTransportBuilderOption func(*watchTransport)

// WithSettle is an option builder that sets how long a file must go without writes before it is
// reported.
//
// Parameters:
//   - d: the settle interval
//
// Returns:
//   - WatchTransportBuilderOption: a function that applies the settle option
func WithSettle(d time.Duration) WatchTransportBuilderOption {
	return func(t *watchTransport) {
		if d > 0 {
			t.settle = d
		}
	}
}

// WithWatchLogger is an option builder that sets the transport's logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - WatchTransportBuilderOption: a function that applies the logger option
func WithWatchLogger(logger *slog.Logger) WatchTransportBuilderOption {
	return func(t *watchTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}
