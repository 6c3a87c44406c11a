package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/loader"
)

// DefaultSubdomain is the avatar tool's demo subdomain.
const DefaultSubdomain = "demo"

// ToolURL returns the avatar tool address for subdomain.
//
// Parameters:
//   - subdomain: the tenant subdomain
//
// Returns:
//   - string: the tool URL
func ToolURL(subdomain string) string {
	if subdomain == "" {
		subdomain = DefaultSubdomain
	}
	return fmt.Sprintf("https://%s.avaturn.dev", subdomain)
}

// EventSource is the event API of an embedded widget.
type EventSource interface {
	// Init starts the widget pointed at url.
	Init(ctx context.Context, url string) error

	// On registers fn for every emission of event.
	On(event string, fn func(data json.RawMessage))
}

// widgetTransport is the implementation of the WidgetTransport interface.
type widgetTransport struct {
	mu sync.Mutex

	source  EventSource
	handler ExportHandler
	surface Surface
	logger  *slog.Logger
	url     string
}

// WidgetTransport drives the avatar tool through its widget API. Opening initializes the widget
// and disables the open control until the surface closes again; the widget's export event calls
// the handler and closes the surface.
type WidgetTransport interface {
	// Open initializes the widget and shows the surface. No-op while the surface is open.
	//
	// Parameters:
	//   - ctx: bounds widget initialization
	//
	// Returns:
	//   - error: if the widget failed to initialize; the surface stays closed
	Open(ctx context.Context) error

	// Close hides the surface.
	Close()

	// Surface returns the guarded surface the widget lives in.
	//
	// Returns:
	//   - Surface: the surface
	Surface() Surface
}

var _ WidgetTransport = &widgetTransport{}

// NewWidgetTransport creates a WidgetTransport on source and registers its export handler.
//
// Parameters:
//   - source: the widget event API
//   - handler: receives completed exports
//   - options: a variadic list of WidgetTransportBuilderOption functions to configure the transport
//
// Returns:
//   - WidgetTransport: a new WidgetTransport
func NewWidgetTransport(source EventSource, handler ExportHandler, options ...WidgetTransportBuilderOption) WidgetTransport {
	t := &widgetTransport{
		source:  source,
		handler: handler,
		surface: NewSurface(true),
		logger:  slog.Default(),
		url:     ToolURL(DefaultSubdomain),
	}
	for _, opt := range options {
		opt(t)
	}
	source.On(WidgetExportEvent, t.onExport)
	return t
}

func (t *widgetTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.surface.OpenEnabled() {
		return nil
	}
	// The widget may emit before Init returns, so the surface must already be open.
	t.surface.Open()
	if err := t.source.Init(ctx, t.url); err != nil {
		t.surface.Close()
		return fmt.Errorf("failed to initialize widget at %s: %w", t.url, err)
	}
	t.logger.Debug("widget opened", "url", t.url)
	return nil
}

func (t *widgetTransport) Close() {
	t.surface.Close()
}

func (t *widgetTransport) Surface() Surface {
	return t.surface
}

func (t *widgetTransport) onExport(data json.RawMessage) {
	msg := decodeExport(data)
	switch m := msg.(type) {
	case ExportCompleted:
		t.logger.Info("export received", "transport", "widget", "url", loader.DisplayLocation(m.URL))
		t.handler.OnExportCompleted(m.URL)
		t.surface.Close()
	case Discarded:
		t.logger.Debug("widget event discarded", "error", m.Err)
	}
}
