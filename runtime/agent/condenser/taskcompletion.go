package condenser

import (
	"context"
	"sync"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// TaskCompletion forgets the working events of finished task chunks. A chunk
// starts at a user message and is complete once a later user message opens
// the next one: at that point commands, observations, and intermediate
// thinking from the finished chunk no longer inform the conversation, while
// the user's request, the agent's replies, and file edits still do.
//
// Unlike the other strategies this one carries state: a high-water mark of
// the last chunk already processed, so each chunk is condensed at most once.
type TaskCompletion struct {
	meta

	mu              sync.Mutex
	lastProcessedID int64
}

// NewTaskCompletion returns a chunk-pruning condenser.
func NewTaskCompletion() *TaskCompletion { return &TaskCompletion{} }

// Condense applies the rolling contract.
func (c *TaskCompletion) Condense(ctx context.Context, events []*event.Event) (Result, error) {
	return Roll(ctx, c, events)
}

// ShouldCondense reports whether a completed chunk exists past the high
// water mark.
func (c *TaskCompletion) ShouldCondense(view *event.View) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, end := c.completedSpan(view)
	return end > 0
}

// GetCondensation forgets the working events of every completed chunk past
// the high water mark and advances the mark to the end of the newest one.
func (c *TaskCompletion) GetCondensation(_ context.Context, view *event.View) (*Condensation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	forgotten, end := c.completedSpan(view)
	if end == 0 {
		return nil, nil
	}
	c.lastProcessedID = end
	if len(forgotten) == 0 {
		return nil, nil
	}
	c.AddMetadata("forgotten_count", len(forgotten))
	c.AddMetadata("processed_through", end)
	return &Condensation{Action: event.CondensationAction{Forgotten: forgotten}}, nil
}

// completedSpan returns the prunable event ids across all completed chunks
// past the high water mark, along with the id of the last event in the
// newest completed chunk. end is 0 when no new completed chunk exists.
// Callers must hold mu.
func (c *TaskCompletion) completedSpan(view *event.View) (forgotten []int64, end int64) {
	// Find the start of the newest chunk: everything before the last user
	// message belongs to completed chunks.
	lastUser := -1
	for i := view.Len() - 1; i >= 0; i-- {
		if isUserMessage(view.Events[i]) {
			lastUser = i
			break
		}
	}
	if lastUser <= 0 {
		return nil, 0
	}

	for i := 0; i < lastUser; i++ {
		e := view.Events[i]
		if e.ID <= 0 || e.ID <= c.lastProcessedID {
			continue
		}
		if e.ID > end {
			end = e.ID
		}
		if keepAfterCompletion(e) {
			continue
		}
		forgotten = append(forgotten, e.ID)
	}
	return forgotten, end
}

func isUserMessage(e *event.Event) bool {
	return e.Source == event.SourceUser && e.Payload.Kind() == event.KindMessageAction
}

// keepAfterCompletion reports whether an event stays meaningful after its
// chunk finished: requests, replies, and file edits do; commands,
// observations, and intermediate thinking do not.
func keepAfterCompletion(e *event.Event) bool {
	switch e.Payload.Kind() {
	case event.KindSystemMessageAction,
		event.KindMessageAction,
		event.KindFinishAction,
		event.KindWriteFileAction,
		event.KindEditFileAction:
		return true
	}
	return false
}
