package bridge

import "log/slog"

// WidgetTransportBuilderOption is a functional option for configuring a WidgetTransport.
type WidgetTransportBuilderOption func(*widgetTransport)

// WithToolURL is an option builder that sets the URL the widget is initialized with.
//
// Parameters:
//   - url: the tool URL
//
// Returns:
//   - WidgetTransportBuilderOption: a function that applies the URL option
func WithToolURL(url string) WidgetTransportBuilderOption {
	return func(t *widgetTransport) {
		if url != "" {
			t.url = url
		}
	}
}

// WithWidgetSurface is an option builder that replaces the widget's surface. The surface should
// be guarded.
//
// Parameters:
//   - surface: the surface
//
// Returns:
//   - WidgetTransportBuilderOption: a function that applies the surface option
func WithWidgetSurface(surface Surface) WidgetTransportBuilderOption {
	return func(t *widgetTransport) {
		if surface != nil {
			t.surface = surface
		}
	}
}

// WithWidgetLogger is an option builder that sets the transport's logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - WidgetTransportBuilderOption: a function that applies the logger option
func WithWidgetLogger(logger *slog.Logger) WidgetTransportBuilderOption {
	return func(t *widgetTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}
