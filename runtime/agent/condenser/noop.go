package condenser

import (
	"context"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// NoOp returns the replayed view unchanged and never condenses. It is the
// default for short-lived sessions and the identity element for pipelines.
type NoOp struct {
	meta
}

// NewNoOp returns a condenser that never forgets.
func NewNoOp() *NoOp { return &NoOp{} }

// Condense replays the history and returns it as-is.
func (c *NoOp) Condense(_ context.Context, events []*event.Event) (Result, error) {
	return viewResult(event.FromEvents(events)), nil
}
