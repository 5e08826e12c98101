package condenser

import (
	"context"
	"fmt"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// BrowserContentPlaceholder replaces page content of browser observations
// older than the attention window.
const BrowserContentPlaceholder = "Content omitted."

// BrowserOutput blanks the page content of all but the most recent browser
// observations. Browser output dominates context in web tasks while being
// the least useful once the agent has navigated away; the URL is kept so the
// trail of visited pages survives.
type BrowserOutput struct {
	meta

	attentionWindow int
}

// NewBrowserOutput returns a condenser that keeps full content only for the
// newest attentionWindow browser observations.
func NewBrowserOutput(attentionWindow int) (*BrowserOutput, error) {
	if attentionWindow < 1 {
		return nil, fmt.Errorf("attention window %d must be at least 1", attentionWindow)
	}
	return &BrowserOutput{attentionWindow: attentionWindow}, nil
}

// Condense replaces stale browser content in the replayed view. It never
// returns a condensation.
func (c *BrowserOutput) Condense(_ context.Context, events []*event.Event) (Result, error) {
	view := event.FromEvents(events)

	// Count browser observations from the end to find the window boundary.
	seen := 0
	masked := 0
	out := make([]*event.Event, view.Len())
	for i := view.Len() - 1; i >= 0; i-- {
		e := view.Events[i]
		out[i] = e
		bo, ok := e.Payload.(event.BrowserObservation)
		if !ok {
			continue
		}
		seen++
		if seen <= c.attentionWindow {
			continue
		}
		out[i] = e.WithPayload(event.BrowserObservation{URL: bo.URL, Content: BrowserContentPlaceholder})
		masked++
	}
	c.AddMetadata("masked", masked)
	return viewResult(event.Wrap(out)), nil
}
