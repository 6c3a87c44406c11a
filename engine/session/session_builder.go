package session

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-avatar/engine/avatar"
	"github.com/Carmen-Shannon/oxy-avatar/engine/bridge"
	"github.com/Carmen-Shannon/oxy-avatar/engine/loader"
)

// SessionBuilderOption is a functional option for configuring a Session during construction.
type SessionBuilderOption func(*session)

// WithLoader is an option builder that sets the loader used for avatars and the idle animation.
// Without it the session creates its own.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - SessionBuilderOption: a function that applies the loader option
func WithLoader(l loader.Loader) SessionBuilderOption {
	return func(s *session) {
		s.loader = l
	}
}

// WithDefaultAvatar is an option builder that sets the avatar loaded by Start.
//
// Parameters:
//   - url: the avatar location
//
// Returns:
//   - SessionBuilderOption: a function that applies the default avatar option
func WithDefaultAvatar(url string) SessionBuilderOption {
	return func(s *session) {
		if url != "" {
			s.avatarURL = url
		}
	}
}

// WithAnimation is an option builder that sets the asset whose first clip is the idle loop.
//
// Parameters:
//   - url: the animation location
//
// Returns:
//   - SessionBuilderOption: a function that applies the animation option
func WithAnimation(url string) SessionBuilderOption {
	return func(s *session) {
		if url != "" {
			s.animationURL = url
		}
	}
}

// WithRootJoint is an option builder that sets the joint whose translation survives retargeting.
//
// Parameters:
//   - joint: the root joint name
//
// Returns:
//   - SessionBuilderOption: a function that applies the root joint option
func WithRootJoint(joint string) SessionBuilderOption {
	return func(s *session) {
		if joint != "" {
			s.rootJoint = joint
		}
	}
}

// WithMessageTags is an option builder that sets the source and event name accepted by the
// raw-message transport. Empty values keep the defaults.
//
// Parameters:
//   - source: the tool's source tag
//   - exportEvent: the export event name
//
// Returns:
//   - SessionBuilderOption: a function that applies the tag option
func WithMessageTags(source, exportEvent string) SessionBuilderOption {
	return func(s *session) {
		if source != "" {
			s.source = source
		}
		if exportEvent != "" {
			s.exportEvent = exportEvent
		}
	}
}

// WithWidget is an option builder that drives the tool through a widget event source. The
// surface becomes guarded and OpenSurface initializes the widget at toolURL.
//
// Parameters:
//   - source: the widget event API
//   - toolURL: the URL the widget is initialized with, empty for the default
//
// Returns:
//   - SessionBuilderOption: a function that applies the widget option
func WithWidget(source bridge.EventSource, toolURL string) SessionBuilderOption {
	return func(s *session) {
		s.eventSource = source
		if toolURL != "" {
			s.toolURL = toolURL
		}
	}
}

// WithSlotOptions is an option builder that passes extra options to the avatar slot, such as
// a tracer.
//
// Parameters:
//   - options: the slot options
//
// Returns:
//   - SessionBuilderOption: a function that applies the slot options
func WithSlotOptions(options ...avatar.SlotBuilderOption) SessionBuilderOption {
	return func(s *session) {
		s.slotOptions = append(s.slotOptions, options...)
	}
}

// WithLogger is an option builder that sets the logger shared by the session's components.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - SessionBuilderOption: a function that applies the logger option
func WithLogger(logger *slog.Logger) SessionBuilderOption {
	return func(s *session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
