package condenser

import (
	"fmt"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// validateHalving checks the shared size parameters of the halving
// strategies. keepFirst must leave room in the post-condensation half for at
// least one recent event (or the summary slot).
func validateHalving(maxSize, keepFirst int) error {
	if maxSize < 1 {
		return fmt.Errorf("max size %d must be at least 1", maxSize)
	}
	if keepFirst < 0 {
		return fmt.Errorf("keep first %d must be non-negative", keepFirst)
	}
	if keepFirst >= maxSize/2 {
		return fmt.Errorf("keep first %d must be less than half of max size %d", keepFirst, maxSize)
	}
	return nil
}

// splitHalving splits a view per the halving policy: keep the first
// keepFirst events, keep enough of the newest events to land at target
// post-condensation size (half of maxSize), and mark everything between as
// forgotten. When reserveSummary is set one slot of the target is reserved
// for the synthetic summary event the condensation will introduce.
func splitHalving(view *event.View, keepFirst, target int, reserveSummary bool) (head, forgotten, tail []*event.Event) {
	events := view.Events
	if keepFirst > len(events) {
		keepFirst = len(events)
	}
	head = events[:keepFirst]

	budget := target - len(head)
	if reserveSummary {
		budget--
	}
	if budget < 0 {
		budget = 0
	}
	if budget > len(events)-keepFirst {
		budget = len(events) - keepFirst
	}

	forgotten = events[keepFirst : len(events)-budget]
	tail = events[len(events)-budget:]
	return head, forgotten, tail
}

// realIDs collects the log ids of the given events, skipping synthetic
// events (the inserted summary, which has no id and is never forgotten by
// reference).
func realIDs(events []*event.Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		if e.ID > 0 {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// idRange returns the inclusive id range spanned by the given events,
// ignoring synthetic ones. ok is false when no real event is present.
func idRange(events []*event.Event) (start, end int64, ok bool) {
	for _, e := range events {
		if e.ID <= 0 {
			continue
		}
		if !ok || e.ID < start {
			start = e.ID
		}
		if e.ID > end {
			end = e.ID
		}
		ok = true
	}
	return start, end, ok
}
