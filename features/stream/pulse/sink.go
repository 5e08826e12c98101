// Package pulse exposes a stream.Sink implementation that publishes session
// events to goa.design/pulse streams. Services build a Redis client, pass it
// to clients/pulse, and hand the resulting sink to the event log.
package pulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	clientspulse "github.com/skeinworks/skein/features/stream/pulse/clients/pulse"
	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// Options configures the Pulse sink.
	Options struct {
		// Client is the Pulse client used to publish events. Required.
		Client clientspulse.Client
		// StreamID derives the target Pulse stream from the session id.
		// Defaults to `session/<sessionID>`.
		StreamID func(sessionID string) (string, error)
		// MarshalEnvelope allows overriding the envelope serialization
		// (primarily for tests).
		MarshalEnvelope func(envelope) ([]byte, error)
	}

	// Sink publishes session events into Pulse streams. Thread-safe for
	// concurrent Send operations.
	Sink struct {
		client clientspulse.Client
		opts   sinkOptions
	}

	sinkOptions struct {
		streamID        func(sessionID string) (string, error)
		marshalEnvelope func(envelope) ([]byte, error)
	}

	// envelope wraps session events for transmission over Pulse streams.
	envelope struct {
		// Kind identifies the event payload kind (e.g. "message",
		// "run_command").
		Kind string `json:"kind"`
		// SessionID links the event to its session.
		SessionID string `json:"session_id"`
		// EventID is the log-assigned event id.
		EventID int64 `json:"event_id"`
		// Timestamp records when the event was published (UTC).
		Timestamp time.Time `json:"timestamp"`
		// Event contains the full event encoding.
		Event json.RawMessage `json:"event"`
	}
)

// NewSink constructs a Pulse-backed stream sink. The Client field in opts is
// required; StreamID and MarshalEnvelope default to the built-in
// implementations if not provided.
func NewSink(opts Options) (*Sink, error) {
	if opts.Client == nil {
		return nil, errors.New("pulse client is required")
	}
	cfg := sinkOptions{
		streamID:        defaultStreamID,
		marshalEnvelope: defaultMarshal,
	}
	if opts.StreamID != nil {
		cfg.streamID = opts.StreamID
	}
	if opts.MarshalEnvelope != nil {
		cfg.marshalEnvelope = opts.MarshalEnvelope
	}
	return &Sink{
		client: opts.Client,
		opts:   cfg,
	}, nil
}

// Send publishes the event to the derived Pulse stream. It derives the stream
// name, wraps the event in an envelope, marshals it to JSON, and publishes it
// via the Pulse client.
func (s *Sink) Send(ctx context.Context, sessionID string, e *event.Event) error {
	if e == nil {
		return errors.New("event is required")
	}
	streamID, err := s.opts.streamID(sessionID)
	if err != nil {
		return err
	}
	handle, err := s.client.Stream(streamID)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", e.ID, err)
	}
	env := envelope{
		Kind:      string(e.Payload.Kind()),
		SessionID: sessionID,
		EventID:   e.ID,
		Timestamp: time.Now().UTC(),
		Event:     encoded,
	}
	payload, err := s.opts.marshalEnvelope(env)
	if err != nil {
		return err
	}
	if _, err := handle.Add(ctx, env.Kind, payload); err != nil {
		return err
	}
	return nil
}

// Close releases resources owned by the sink. This delegates to the
// underlying Pulse client, which may or may not close the Redis connection
// depending on the client implementation.
func (s *Sink) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func defaultStreamID(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	return fmt.Sprintf("session/%s", sessionID), nil
}

func defaultMarshal(env envelope) ([]byte, error) {
	return json.Marshal(env)
}
