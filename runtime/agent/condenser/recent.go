package condenser

import (
	"context"
	"fmt"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// RecentEvents bounds the view to a fixed window without ever emitting a
// condensation: it keeps the first keepFirst events plus the newest events
// up to maxEvents, silently dropping the middle from the view only. Any
// system-message event is preserved regardless of position.
type RecentEvents struct {
	meta

	maxEvents int
	keepFirst int
}

// NewRecentEvents returns a size-bounded view condenser.
func NewRecentEvents(maxEvents, keepFirst int) (*RecentEvents, error) {
	if maxEvents < 1 {
		return nil, fmt.Errorf("max events %d must be at least 1", maxEvents)
	}
	if keepFirst < 0 || keepFirst > maxEvents {
		return nil, fmt.Errorf("keep first %d must be between 0 and max events %d", keepFirst, maxEvents)
	}
	return &RecentEvents{maxEvents: maxEvents, keepFirst: keepFirst}, nil
}

// Condense trims the replayed view to the window. It never returns a
// condensation.
func (c *RecentEvents) Condense(_ context.Context, events []*event.Event) (Result, error) {
	view := event.FromEvents(events)
	if view.Len() <= c.maxEvents {
		return viewResult(view), nil
	}

	keep := make(map[int]struct{}, c.maxEvents)
	for i := 0; i < c.keepFirst && i < view.Len(); i++ {
		keep[i] = struct{}{}
	}
	budget := c.maxEvents - len(keep)
	for i := view.Len() - budget; i < view.Len(); i++ {
		keep[i] = struct{}{}
	}
	for i, e := range view.Events {
		if e.Payload.Kind() == event.KindSystemMessageAction {
			keep[i] = struct{}{}
		}
	}

	kept := make([]*event.Event, 0, len(keep))
	for i, e := range view.Events {
		if _, ok := keep[i]; ok {
			kept = append(kept, e)
		}
	}
	c.AddMetadata("trimmed", view.Len()-len(kept))
	return viewResult(event.Wrap(kept)), nil
}
