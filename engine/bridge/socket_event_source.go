package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
)

// socketEvent is one frame pushed by a widget host.
type socketEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// socketEventSource is the implementation of the SocketEventSource interface.
type socketEventSource struct {
	mu sync.Mutex

	logger   *slog.Logger
	conn     *websocket.Conn
	handlers map[string][]func(json.RawMessage)
}

// SocketEventSource is an EventSource whose widget runs in another process that pushes
// {"event": name, "data": payload} frames over a WebSocket. Init dials the widget host; a
// repeated Init replaces the previous connection.
type SocketEventSource interface {
	EventSource

	// Close drops the connection to the widget host.
	//
	// Returns:
	//   - error: if the connection could not be closed cleanly
	Close() error
}

var _ SocketEventSource = &socketEventSource{}

// NewSocketEventSource creates an unconnected SocketEventSource.
//
// Parameters:
//   - logger: the logger for dropped frames, or nil for slog.Default
//
// Returns:
//   - SocketEventSource: a new SocketEventSource
func NewSocketEventSource(logger *slog.Logger) SocketEventSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &socketEventSource{
		logger:   logger,
		handlers: make(map[string][]func(json.RawMessage)),
	}
}

func (s *socketEventSource) Init(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial widget host: %w", err)
	}

	s.mu.Lock()
	prev := s.conn
	s.conn = conn
	s.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	go s.read(conn)
	return nil
}

func (s *socketEventSource) On(event string, fn func(data json.RawMessage)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.handlers[event] = append(s.handlers[event], fn)
	s.mu.Unlock()
}

func (s *socketEventSource) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}

// read dispatches frames from conn until it fails.
func (s *socketEventSource) read(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debug("widget host connection ended", "error", err)
			return
		}

		var ev socketEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.logger.Debug("widget frame discarded", "error", &ProtocolError{Reason: ReasonMalformed, Err: err})
			continue
		}

		s.mu.Lock()
		handlers := slices.Clone(s.handlers[ev.Event])
		s.mu.Unlock()
		for _, fn := range handlers {
			fn(ev.Data)
		}
	}
}
