// Package mongo wires the eventlog.Store interface to the MongoDB client.
package mongo

import (
	"context"
	"errors"

	clientsmongo "github.com/skeinworks/skein/features/eventlog/mongo/clients/mongo"
	"github.com/skeinworks/skein/runtime/agent/event"
)

// Store implements eventlog.Store by delegating to the Mongo client.
type Store struct {
	client clientsmongo.Client
}

// NewStore builds a Mongo-backed event log store using the provided client.
func NewStore(client clientsmongo.Client) (*Store, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	return &Store{client: client}, nil
}

// Append implements eventlog.Store.
func (s *Store) Append(ctx context.Context, sessionID string, e *event.Event) error {
	return s.client.Append(ctx, sessionID, e)
}

// List implements eventlog.Store.
func (s *Store) List(ctx context.Context, sessionID string, afterID int64, limit int) ([]*event.Event, error) {
	return s.client.List(ctx, sessionID, afterID, limit)
}
