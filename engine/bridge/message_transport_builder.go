package bridge

import (
	"log/slog"
	"net/http"
)

// MessageTransportBuilderOption is a functional option for configuring a MessageTransport.
type MessageTransportBuilderOption func(*messageTransport)

// WithSource is an option builder that sets the source tag accepted by the transport.
//
// Parameters:
//   - source: the accepted source tag
//
// Returns:
//   - MessageTransportBuilderOption: a function that applies the source option
func WithSource(source string) MessageTransportBuilderOption {
	return func(t *messageTransport) {
		if source != "" {
			t.source = source
		}
	}
}

// WithExportEvent is an option builder that sets the event name treated as an export.
//
// Parameters:
//   - eventName: the accepted event name
//
// Returns:
//   - MessageTransportBuilderOption: a function that applies the event name option
func WithExportEvent(eventName string) MessageTransportBuilderOption {
	return func(t *messageTransport) {
		if eventName != "" {
			t.eventName = eventName
		}
	}
}

// WithCheckOrigin is an option builder that sets the origin check used when upgrading WebSocket
// connections. The default accepts same-origin requests only.
//
// Parameters:
//   - check: the origin check
//
// Returns:
//   - MessageTransportBuilderOption: a function that applies the origin check option
func WithCheckOrigin(check func(r *http.Request) bool) MessageTransportBuilderOption {
	return func(t *messageTransport) {
		t.upgrader.CheckOrigin = check
	}
}

// WithMessageLogger is an option builder that sets the transport's logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - MessageTransportBuilderOption: a function that applies the logger option
func WithMessageLogger(logger *slog.Logger) MessageTransportBuilderOption {
	return func(t *messageTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}
