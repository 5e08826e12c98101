// Package event defines the event vocabulary of an agent session: actions
// the agent or user takes, observations the environment returns, and the
// replayed View the model is prompted with.
//
// The payload set is closed. Every payload implements the sealed Payload
// interface, and Text is the single exhaustive dispatcher over all kinds;
// adding a kind means extending both, which the compiler and tests enforce.
package event

import "time"

type (
	// Source identifies who produced an event.
	Source string

	// Kind identifies the concrete payload type of an event. Kinds are
	// stable wire identifiers, not Go type names.
	Kind string

	// Payload is the closed set of event payloads. Concrete payloads are
	// value types declared in this package; external packages cannot add
	// kinds.
	Payload interface {
		Kind() Kind
		sealed()
	}

	// ActionPayload marks payloads that represent something an actor does.
	ActionPayload interface {
		Payload
		isAction()
	}

	// ObservationPayload marks payloads that represent something the
	// environment reports back.
	ObservationPayload interface {
		Payload
		isObservation()
	}

	// Event is one immutable entry of a session log. ID is assigned by the
	// log on append and is zero for events not (yet) in the log, including
	// the synthetic summary event inserted during view replay.
	Event struct {
		// ID is the log-assigned identifier, unique and strictly increasing
		// within a session. Zero means unassigned.
		ID int64 `json:"id"`

		// Source identifies the producer.
		Source Source `json:"source"`

		// Timestamp records when the event was created.
		Timestamp time.Time `json:"timestamp"`

		// Payload carries the typed content.
		Payload Payload `json:"-"`
	}
)

// Event sources.
const (
	SourceUser        Source = "user"
	SourceAgent       Source = "agent"
	SourceEnvironment Source = "environment"
)

// New constructs an unappended event with the current time.
func New(source Source, payload Payload) *Event {
	return &Event{Source: source, Timestamp: time.Now().UTC(), Payload: payload}
}

// WithPayload returns a copy of the event carrying a different payload while
// preserving its identity and provenance. Used by masking condensers, which
// replace content without rewriting history.
func (e *Event) WithPayload(payload Payload) *Event {
	clone := *e
	clone.Payload = payload
	return &clone
}

// Action returns the payload as an action, if it is one.
func (e *Event) Action() (ActionPayload, bool) {
	a, ok := e.Payload.(ActionPayload)
	return a, ok
}

// Observation returns the payload as an observation, if it is one.
func (e *Event) Observation() (ObservationPayload, bool) {
	o, ok := e.Payload.(ObservationPayload)
	return o, ok
}
