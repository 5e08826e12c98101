package event

// View is the projection of an event log that the model is prompted with:
// the log minus forgotten events and condensation bookkeeping, plus at most
// one synthetic summary event.
type View struct {
	// Events holds the projected sequence in log order.
	Events []*Event
}

// FromEvents replays a log into its current view. The replay is
// deterministic and idempotent:
//
//   - Every id forgotten by any condensation action in the log is excluded.
//   - Condensation action events themselves are excluded.
//   - The most recent condensation carrying a summary contributes one
//     synthetic summary event, inserted at its recorded offset (clamped to
//     the view bounds). The synthetic event has no id and is never appended
//     to a log.
func FromEvents(events []*Event) *View {
	var condensations []CondensationAction
	for _, e := range events {
		if ca, ok := e.Payload.(CondensationAction); ok {
			condensations = append(condensations, ca)
		}
	}

	kept := make([]*Event, 0, len(events))
	for _, e := range events {
		if _, ok := e.Payload.(CondensationAction); ok {
			continue
		}
		forgotten := false
		for _, ca := range condensations {
			if e.ID > 0 && ca.Forgets(e.ID) {
				forgotten = true
				break
			}
		}
		if forgotten {
			continue
		}
		kept = append(kept, e)
	}

	for i := len(condensations) - 1; i >= 0; i-- {
		ca := condensations[i]
		if !ca.HasSummary() {
			continue
		}
		offset := ca.SummaryOffset
		if offset < 0 {
			offset = 0
		}
		if offset > len(kept) {
			offset = len(kept)
		}
		summary := New(SourceEnvironment, SummaryObservation{Summary: ca.Summary})
		kept = append(kept[:offset], append([]*Event{summary}, kept[offset:]...)...)
		break
	}

	return &View{Events: kept}
}

// Wrap builds a view directly from an already-projected event sequence.
func Wrap(events []*Event) *View {
	return &View{Events: events}
}

// Len returns the number of events in the view.
func (v *View) Len() int { return len(v.Events) }

// UnhandledCondensation returns the condensation action trailing the log, if
// the most recent event is one. The controller uses it to recognize that the
// previous step condensed instead of acting.
func UnhandledCondensation(events []*Event) (CondensationAction, bool) {
	if len(events) == 0 {
		return CondensationAction{}, false
	}
	ca, ok := events[len(events)-1].Payload.(CondensationAction)
	return ca, ok
}
