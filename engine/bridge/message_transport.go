package bridge

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Carmen-Shannon/oxy-avatar/engine/loader"
)

// messageTransport is the implementation of the MessageTransport interface.
type messageTransport struct {
	handler ExportHandler
	surface Surface
	logger  *slog.Logger

	source    string
	eventName string
	upgrader  websocket.Upgrader
}

// MessageTransport receives raw structured messages from the avatar tool, as posted by an iframe
// to its parent. Messages that are not export events from the configured source are dropped.
// An export calls the handler and then closes the surface.
//
// MessageTransport is also an http.Handler: each text or binary frame received on an upgraded
// WebSocket connection is passed to Receive.
type MessageTransport interface {
	http.Handler

	// Receive decodes and dispatches one raw message.
	//
	// Parameters:
	//   - raw: the serialized envelope
	//
	// Returns:
	//   - Message: what the message decoded to
	Receive(raw []byte) Message

	// Surface returns the surface this transport closes on export.
	//
	// Returns:
	//   - Surface: the surface
	Surface() Surface
}

var _ MessageTransport = &messageTransport{}

// NewMessageTransport creates a MessageTransport that forwards exports to handler.
// A nil surface gets an unguarded one: the iframe is a static element with a fixed target.
//
// Parameters:
//   - handler: receives completed exports
//   - surface: the surface closed on export, or nil
//   - options: a variadic list of MessageTransportBuilderOption functions to configure the transport
//
// Returns:
//   - MessageTransport: a new MessageTransport
func NewMessageTransport(handler ExportHandler, surface Surface, options ...MessageTransportBuilderOption) MessageTransport {
	if surface == nil {
		surface = NewSurface(false)
	}
	t := &messageTransport{
		handler:   handler,
		surface:   surface,
		logger:    slog.Default(),
		source:    DefaultSource,
		eventName: DefaultExportEvent,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *messageTransport) Receive(raw []byte) Message {
	msg := Decode(raw, t.source, t.eventName)
	switch m := msg.(type) {
	case ExportCompleted:
		t.logger.Info("export received", "transport", "message", "url", loader.DisplayLocation(m.URL))
		t.handler.OnExportCompleted(m.URL)
		t.surface.Close()
	case Discarded:
		t.logger.Debug("message discarded", "transport", "message", "error", m.Err)
	}
	return msg
}

func (t *messageTransport) Surface() Surface {
	return t.surface
}

func (t *messageTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	t.logger.Debug("bridge client connected", "remote", r.RemoteAddr)
	for {
		typ, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Warn("bridge client read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		t.Receive(raw)
	}
}
