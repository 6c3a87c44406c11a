package avatar

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// SlotBuilderOption is a functional option for configuring a Slot during construction.
type SlotBuilderOption func(*slot)

// WithFrameLock is an option builder that sets the lock shared with the render loop. The Slot
// holds it while applying a swap so no frame observes a half-applied swap.
//
// Parameters:
//   - lock: the frame lock
//
// Returns:
//   - SlotBuilderOption: a function that applies the frame lock option to a slot
func WithFrameLock(lock sync.Locker) SlotBuilderOption {
	return func(s *slot) {
		if lock != nil {
			s.frame = lock
		}
	}
}

// WithLogger is an option builder that sets the structured logger used for swap diagnostics.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - SlotBuilderOption: a function that applies the logger option to a slot
func WithLogger(logger *slog.Logger) SlotBuilderOption {
	return func(s *slot) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer is an option builder that sets the tracer each swap is recorded with.
//
// Parameters:
//   - tracer: the tracer
//
// Returns:
//   - SlotBuilderOption: a function that applies the tracer option to a slot
func WithTracer(tracer trace.Tracer) SlotBuilderOption {
	return func(s *slot) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}
