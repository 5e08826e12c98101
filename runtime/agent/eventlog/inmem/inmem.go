// Package inmem provides an in-memory implementation of eventlog.Store.
//
// The in-memory store is intended for tests and local development. It is not
// durable and should not be used in production.
package inmem

import (
	"context"
	"errors"
	"sync"

	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// Store implements eventlog.Store in memory.
	Store struct {
		mu sync.Mutex
		// per-session ordered events.
		events map[string][]*event.Event
	}
)

// New returns a new in-memory event store.
func New() *Store {
	return &Store{events: make(map[string][]*event.Event)}
}

// Append implements eventlog.Store.
func (s *Store) Append(_ context.Context, sessionID string, e *event.Event) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if e == nil {
		return errors.New("event is required")
	}
	if e.ID <= 0 {
		return errors.New("event id must be assigned before persisting")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.events[sessionID]
	if n := len(existing); n > 0 && existing[n-1].ID >= e.ID {
		return errors.New("event ids must be strictly increasing")
	}
	ev := *e
	s.events[sessionID] = append(existing, &ev)
	return nil
}

// List implements eventlog.Store.
func (s *Store) List(_ context.Context, sessionID string, afterID int64, limit int) ([]*event.Event, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*event.Event
	for _, e := range s.events[sessionID] {
		if e.ID <= afterID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
