package controller

import (
	"github.com/skeinworks/skein/runtime/agent/event"
)

// defaultStuckRepeats is how many identical action/observation pairs in a
// row count as a loop.
const defaultStuckRepeats = 4

// StuckDetector recognizes sessions looping on the same action: an agent
// re-running a failing command forever burns budget without progress. It
// trips when the newest repeats action/observation pairs are pairwise
// identical by kind and rendered text.
type StuckDetector struct {
	// Repeats is the loop length that trips the detector. Zero means the
	// default of 4.
	Repeats int
}

// IsStuck inspects the tail of the log.
func (d StuckDetector) IsStuck(events []*event.Event) bool {
	repeats := d.Repeats
	if repeats <= 0 {
		repeats = defaultStuckRepeats
	}

	pairs := tailPairs(events, repeats)
	if len(pairs) < repeats {
		return false
	}
	first := pairs[0]
	for _, p := range pairs[1:] {
		if !p.equal(first) {
			return false
		}
	}
	return true
}

type pair struct {
	actionKind event.Kind
	actionText string
	obsKind    event.Kind
	obsText    string
}

func (p pair) equal(o pair) bool {
	return p.actionKind == o.actionKind && p.actionText == o.actionText &&
		p.obsKind == o.obsKind && p.obsText == o.obsText
}

// tailPairs collects up to n trailing (agent action, observation) pairs,
// newest last. A user message breaks the window: new input changes the
// situation, so prior repetition no longer counts.
func tailPairs(events []*event.Event, n int) []pair {
	var pairs []pair
	for i := len(events) - 1; i >= 1 && len(pairs) < n; i-- {
		e := events[i]
		if e.Source == event.SourceUser {
			break
		}
		obs, ok := e.Observation()
		if !ok {
			continue
		}
		prev := events[i-1]
		action, ok := prev.Action()
		if !ok || prev.Source != event.SourceAgent {
			continue
		}
		pairs = append(pairs, pair{
			actionKind: action.Kind(),
			actionText: event.Text(action),
			obsKind:    obs.Kind(),
			obsText:    event.Text(obs),
		})
		i-- // consume the action too
	}
	return pairs
}
