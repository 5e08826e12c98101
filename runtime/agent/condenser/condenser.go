// Package condenser keeps unbounded agent histories inside a bounded model
// context. A condenser maps the raw event log to either a View (what the
// model should currently see) or a Condensation (a decision to forget prior
// events, to be appended to the log before the next model turn).
//
// Strategies are interchangeable: size-based rolling forgetting, LLM
// summarization, attention ranking, masking, token budgets, task-chunk
// pruning, and pipelines of the above. All of them share the same replay
// semantics through event.FromEvents.
package condenser

import (
	"context"
	"sync"

	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// Condenser reduces an event history into something promptable.
	//
	// Condense is a pure function of its input except for the metadata side
	// channel and, for LLM-backed strategies, the model call. It never
	// mutates the given events.
	Condenser interface {
		Condense(ctx context.Context, events []*event.Event) (Result, error)
	}

	// Result is the outcome of a condense call: exactly one of View or
	// Condensation is set. A View means the caller proceeds with model
	// input; a Condensation means the caller must append the action to the
	// log instead of taking a model turn, then retry on the next step.
	Result struct {
		// View is the projection to prompt with, when no condensation is
		// needed.
		View *event.View
		// Condensation is the pending forgetting decision, when one is.
		Condensation *Condensation
	}

	// Condensation wraps a CondensationAction that is ready to append to the
	// session log.
	Condensation struct {
		// Action records the forgotten ids and optional summary.
		Action event.CondensationAction
	}

	// Strategy is the capability pair shared by rolling condensers: a
	// trigger condition and a forgetting policy. Condense for a rolling
	// strategy is always "reconstruct the view, ask ShouldCondense, and on
	// true delegate to GetCondensation" — see Roll.
	Strategy interface {
		// ShouldCondense reports whether the view needs condensing.
		ShouldCondense(view *event.View) bool

		// GetCondensation decides what to forget. Only called when
		// ShouldCondense returned true for the same view.
		GetCondensation(ctx context.Context, view *event.View) (*Condensation, error)
	}

	// Metadata is one diagnostic batch produced by a condense call.
	Metadata map[string]any

	// Recorder accumulates metadata batches for a run. It is owned by the
	// session and used only for observability and tests, never control flow.
	Recorder struct {
		mu      sync.Mutex
		batches []Metadata
	}

	// MetadataProvider is implemented by condensers that batch diagnostics.
	// CondensedHistory flushes the batch exactly once per call, on every
	// exit path.
	MetadataProvider interface {
		FlushTo(rec *Recorder)
	}

	// meta is the embedded metadata side channel shared by the built-in
	// strategies.
	meta struct {
		mu    sync.Mutex
		batch Metadata
	}
)

// Event wraps the condensation action in an unappended AGENT-source event.
func (c *Condensation) Event() *event.Event {
	return event.New(event.SourceAgent, c.Action)
}

// viewResult builds a Result carrying a view.
func viewResult(v *event.View) Result { return Result{View: v} }

// condensationResult builds a Result carrying a pending condensation.
func condensationResult(a event.CondensationAction) Result {
	return Result{Condensation: &Condensation{Action: a}}
}

// CondensedHistory is the controller entry point: it runs Condense while
// guaranteeing that the condenser's metadata batch, if any, is flushed to the
// recorder exactly once regardless of how the call exits.
func CondensedHistory(ctx context.Context, c Condenser, rec *Recorder, events []*event.Event) (Result, error) {
	if rec != nil {
		if mp, ok := c.(MetadataProvider); ok {
			defer mp.FlushTo(rec)
		}
	}
	return c.Condense(ctx, events)
}

// Roll implements the shared two-phase rolling contract: reconstruct the
// View via event-sourcing replay, return it unchanged unless the strategy's
// trigger fires, in which case delegate the forgetting decision to it.
func Roll(ctx context.Context, s Strategy, events []*event.Event) (Result, error) {
	view := event.FromEvents(events)
	if !s.ShouldCondense(view) {
		return viewResult(view), nil
	}
	cond, err := s.GetCondensation(ctx, view)
	if err != nil {
		return Result{}, err
	}
	if cond == nil {
		return viewResult(view), nil
	}
	return Result{Condensation: cond}, nil
}

// Flush appends a batch to the recorder.
func (r *Recorder) Flush(batch Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
}

// Batches returns the accumulated batches in flush order.
func (r *Recorder) Batches() []Metadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Metadata(nil), r.batches...)
}

// AddMetadata records a diagnostic key/value in the current batch.
func (m *meta) AddMetadata(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batch == nil {
		m.batch = make(Metadata)
	}
	m.batch[key] = value
}

// FlushTo implements MetadataProvider: it drains the current batch into the
// recorder. An empty batch is still flushed so each condense call produces
// exactly one batch.
func (m *meta) FlushTo(rec *Recorder) {
	m.mu.Lock()
	batch := m.batch
	m.batch = nil
	m.mu.Unlock()
	if batch == nil {
		batch = make(Metadata)
	}
	rec.Flush(batch)
}
