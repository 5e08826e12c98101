// Package eventlog provides the append-only event log that backs an agent
// session. The log is the only durable state of a session: views and
// condensation metadata are always recomputed from it.
//
// The log assigns ids. Ids are strictly increasing in append order, unique
// within a session, and never reused. Events are immutable once appended;
// later condensation events record forgetting without touching prior entries.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// Store is the durable backend for session event logs.
	//
	// Append must persist the event verbatim, including the log-assigned id.
	// List returns events with id greater than afterID, ordered by id,
	// limited to limit entries (limit <= 0 means no limit).
	Store interface {
		Append(ctx context.Context, sessionID string, e *event.Event) error
		List(ctx context.Context, sessionID string, afterID int64, limit int) ([]*event.Event, error)
	}

	// Option configures a Log.
	Option func(*Log)

	// Log is a session-owned, in-memory event sequence with optional
	// durability and broadcast hooks. Exactly one controller mutates a given
	// log; condensers and renderers only read snapshots of it.
	Log struct {
		mu        sync.Mutex
		sessionID string
		nextID    int64
		events    []*event.Event

		store Store
		sink  EventSink
	}

	// EventSink mirrors stream.Sink without importing it, keeping the log
	// decoupled from the streaming feature.
	EventSink interface {
		Send(ctx context.Context, sessionID string, e *event.Event) error
	}
)

// WithStore makes the log persist every appended event to the given store.
func WithStore(s Store) Option {
	return func(l *Log) { l.store = s }
}

// WithSink makes the log broadcast every appended event to the given sink.
// Sink errors are returned to the appender but the event remains committed.
func WithSink(s EventSink) Option {
	return func(l *Log) { l.sink = s }
}

// New constructs an empty log for the given session.
func New(sessionID string, opts ...Option) *Log {
	l := &Log{sessionID: sessionID, nextID: 1}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Replay rebuilds a log from its durable store. The returned log continues
// persisting to the same store.
func Replay(ctx context.Context, sessionID string, store Store, opts ...Option) (*Log, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	events, err := store.List(ctx, sessionID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("replay session %s: %w", sessionID, err)
	}
	l := New(sessionID, opts...)
	l.store = store
	var last int64
	for _, e := range events {
		if e.ID <= last {
			return nil, fmt.Errorf("replay session %s: non-monotonic id %d after %d", sessionID, e.ID, last)
		}
		last = e.ID
	}
	l.events = events
	l.nextID = last + 1
	return l, nil
}

// SessionID returns the owning session identifier.
func (l *Log) SessionID() string { return l.sessionID }

// Append assigns the next id to the event, commits it, and propagates it to
// the configured store and sink. The event must not already carry an id.
//
// A store failure aborts the append: nothing partial is committed. A sink
// failure is returned after the event is committed; callers typically log it
// and continue.
func (l *Log) Append(ctx context.Context, e *event.Event) (*event.Event, error) {
	if e == nil {
		return nil, errors.New("event is required")
	}
	if e.Payload == nil {
		return nil, errors.New("event payload is required")
	}
	if e.ID != 0 {
		return nil, fmt.Errorf("event already has id %d; ids are assigned by the log", e.ID)
	}

	l.mu.Lock()
	committed := *e
	committed.ID = l.nextID
	if l.store != nil {
		if err := l.store.Append(ctx, l.sessionID, &committed); err != nil {
			l.mu.Unlock()
			return nil, fmt.Errorf("persist event: %w", err)
		}
	}
	l.nextID++
	l.events = append(l.events, &committed)
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if err := sink.Send(ctx, l.sessionID, &committed); err != nil {
			return &committed, fmt.Errorf("broadcast event %d: %w", committed.ID, err)
		}
	}
	return &committed, nil
}

// Events returns a snapshot of the log in append order. The slice is a copy;
// the events it points at are immutable by contract.
func (l *Log) Events() []*event.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*event.Event(nil), l.events...)
}

// Len returns the number of committed events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Last returns the most recent event, or nil for an empty log.
func (l *Log) Last() *event.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return nil
	}
	return l.events[len(l.events)-1]
}
