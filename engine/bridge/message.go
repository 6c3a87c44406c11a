package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// DefaultSource is the source tag the avatar tool stamps on its messages.
	DefaultSource = "avaturn"

	// DefaultExportEvent is the event name of an "export completed" message.
	DefaultExportEvent = "v2.avatar.exported"

	// WidgetExportEvent is the event the embedded widget emits when an export completes.
	WidgetExportEvent = "export"
)

// Reasons a message is discarded.
const (
	ReasonMalformed  = "malformed envelope"
	ReasonSource     = "unexpected source"
	ReasonEvent      = "unexpected event"
	ReasonMissingURL = "missing url"
)

// ProtocolError describes why an incoming message was discarded. It is logged, never returned to
// the sender: stray or foreign messages are expected traffic.
type ProtocolError struct {
	// Reason is one of the Reason* constants.
	Reason string

	// Err is the decode error, if any.
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bridge: %s: %v", e.Reason, e.Err)
	}
	return "bridge: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Envelope is the wire shape of a raw message from the avatar tool.
type Envelope struct {
	Source    string          `json:"source"`
	EventName string          `json:"eventName"`
	Data      json.RawMessage `json:"data"`
}

// exportData is the payload of an export event.
type exportData struct {
	URL string `json:"url"`
}

// Message is the decoded form of an incoming message: either ExportCompleted or Discarded.
type Message interface {
	message()
}

// ExportCompleted reports that the tool finished exporting an avatar to URL.
type ExportCompleted struct {
	URL string
}

// Discarded is a message that was ignored.
type Discarded struct {
	Err *ProtocolError
}

func (ExportCompleted) message() {}
func (Discarded) message()       {}

// Decode parses raw as an Envelope and validates its tag before reading the payload. Anything that
// is not an export event from source yields Discarded.
//
// Parameters:
//   - raw: the serialized message
//   - source: the accepted source tag
//   - eventName: the accepted event name
//
// Returns:
//   - Message: ExportCompleted or Discarded
func Decode(raw []byte, source, eventName string) Message {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return discard(ReasonMalformed, err)
	}
	if env.Source != source {
		return discard(ReasonSource, fmt.Errorf("got %q", env.Source))
	}
	if env.EventName != eventName {
		return discard(ReasonEvent, fmt.Errorf("got %q", env.EventName))
	}
	return decodeExport(env.Data)
}

// decodeExport reads the url out of an export payload.
func decodeExport(data json.RawMessage) Message {
	if len(data) == 0 {
		return discard(ReasonMissingURL, nil)
	}
	var payload exportData
	if err := json.Unmarshal(data, &payload); err != nil {
		return discard(ReasonMalformed, err)
	}
	url := strings.TrimSpace(payload.URL)
	if url == "" {
		return discard(ReasonMissingURL, nil)
	}
	return ExportCompleted{URL: url}
}

func discard(reason string, err error) Discarded {
	return Discarded{Err: &ProtocolError{Reason: reason, Err: err}}
}
