// Package stream defines the sink contract used to broadcast appended session
// events to external consumers (UIs, monitors, replay tooling). Sinks observe
// the log; they never participate in control flow.
package stream

import (
	"context"

	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// Sink receives every event appended to a session log, in append order.
	// Implementations must be safe for concurrent use across sessions.
	Sink interface {
		// Send publishes the event. Errors are reported to the caller, which
		// may log and continue; a sink failure must not corrupt the log.
		Send(ctx context.Context, sessionID string, e *event.Event) error

		// Close releases sink resources.
		Close(ctx context.Context) error
	}
)
