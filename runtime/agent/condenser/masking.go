package condenser

import (
	"context"
	"fmt"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// MaskPlaceholder replaces observation content that has scrolled out of the
// attention window.
const MaskPlaceholder = "Observation content masked to conserve context."

// ObservationMasking keeps the event sequence intact but blanks the content
// of observations older than the attention window. Actions are never masked,
// so the model still sees what it did, just not every byte of what came
// back.
type ObservationMasking struct {
	meta

	attentionWindow int
}

// NewObservationMasking returns a masking condenser that leaves the newest
// attentionWindow events untouched.
func NewObservationMasking(attentionWindow int) (*ObservationMasking, error) {
	if attentionWindow < 1 {
		return nil, fmt.Errorf("attention window %d must be at least 1", attentionWindow)
	}
	return &ObservationMasking{attentionWindow: attentionWindow}, nil
}

// Condense masks old observations in the replayed view. It never returns a
// condensation and never mutates the input events.
func (c *ObservationMasking) Condense(_ context.Context, events []*event.Event) (Result, error) {
	view := event.FromEvents(events)
	cutoff := view.Len() - c.attentionWindow
	if cutoff <= 0 {
		return viewResult(view), nil
	}

	masked := 0
	out := make([]*event.Event, view.Len())
	for i, e := range view.Events {
		out[i] = e
		if i >= cutoff {
			continue
		}
		if _, ok := e.Observation(); !ok {
			continue
		}
		if e.Payload.Kind() == event.KindSummaryObservation {
			continue
		}
		out[i] = e.WithPayload(event.MaskedObservation{Placeholder: MaskPlaceholder})
		masked++
	}
	c.AddMetadata("masked", masked)
	return viewResult(event.Wrap(out)), nil
}
