// Package executor defines the boundary between the session controller and
// the environment that carries out agent actions.
package executor

import (
	"context"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// Executor runs one action and reports what happened. Implementations return
// an error only for infrastructure failures (the sandbox is gone, the call
// was cancelled); action-level failures are reported inside the observation.
// The controller converts returned errors into error observations, so
// nothing crosses back into the session as a Go panic or aborts the loop.
type Executor interface {
	RunAction(ctx context.Context, action event.ActionPayload) (event.ObservationPayload, error)
}
