package pulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	streamopts "goa.design/pulse/streaming/options"

	clientspulse "github.com/skeinworks/skein/features/stream/pulse/clients/pulse"
	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// EnvelopeDecoder converts raw payloads read from Pulse back into session
	// events. Custom decoders can be provided to handle non-standard envelope
	// formats.
	EnvelopeDecoder func([]byte) (*event.Event, error)

	// SubscriberOptions configures a Pulse-backed subscriber.
	SubscriberOptions struct {
		// Client is the Pulse client used to consume events. Required.
		Client clientspulse.Client
		// SinkName identifies the Pulse consumer group. Defaults to
		// "skein_subscriber".
		SinkName string
		// Buffer specifies the event channel capacity. Defaults to 64.
		Buffer int
		// Decoder deserializes event payloads. Defaults to the built-in JSON
		// decoder.
		Decoder EnvelopeDecoder
	}

	// Subscriber consumes Pulse streams and emits session events. It wraps a
	// Pulse sink (consumer group) and decodes incoming payloads back into
	// event values for UIs and replay tooling.
	Subscriber struct {
		client clientspulse.Client
		buffer int
		name   string
		decode EnvelopeDecoder
	}
)

// NewSubscriber constructs a Pulse-backed subscriber. The Client field in
// opts is required; SinkName, Buffer, and Decoder default to sensible values.
func NewSubscriber(opts SubscriberOptions) (*Subscriber, error) {
	if opts.Client == nil {
		return nil, errors.New("pulse client is required")
	}
	name := opts.SinkName
	if name == "" {
		name = "skein_subscriber"
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	decoder := opts.Decoder
	if decoder == nil {
		decoder = decodeEnvelope
	}
	return &Subscriber{
		client: opts.Client,
		buffer: buffer,
		name:   name,
		decode: decoder,
	}, nil
}

// Subscribe opens a Pulse sink on the given stream ID and returns channels
// for events and errors. It spawns a goroutine that consumes from the sink,
// decodes payloads, and emits events. The returned cancel function stops
// consumption, closes the sink, and closes both channels.
//
// Usage:
//
//	events, errs, cancel, err := sub.Subscribe(ctx, "session/abc123")
//	defer cancel()
//	for evt := range events {
//	    // process event
//	}
func (s *Subscriber) Subscribe(
	ctx context.Context,
	streamID string,
	opts ...streamopts.Sink,
) (<-chan *event.Event, <-chan error, context.CancelFunc, error) {
	str, err := s.client.Stream(streamID)
	if err != nil {
		return nil, nil, nil, err
	}
	sink, err := str.NewSink(ctx, s.name, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	events := make(chan *event.Event, s.buffer)
	errs := make(chan error, 1)
	runCtx, cancel := context.WithCancel(ctx)
	go s.consume(runCtx, sink, events, errs)
	cancelFunc := func() {
		cancel()
		sink.Close(context.Background())
	}
	return events, errs, cancelFunc, nil
}

// consume reads events from the Pulse sink channel, decodes them, and emits
// them on the out channel. It acks each event after successful emission.
func (s *Subscriber) consume(ctx context.Context, sink clientspulse.Sink, out chan<- *event.Event, errs chan<- error) {
	defer close(out)
	defer close(errs)
	ch := sink.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			decoded, err := s.decode(evt.Payload)
			if err != nil {
				errs <- fmt.Errorf("pulse decode payload: %w", err)
				return
			}
			select {
			case out <- decoded:
			case <-ctx.Done():
				return
			}
			if ackErr := sink.Ack(ctx, evt); ackErr != nil {
				errs <- fmt.Errorf("pulse ack: %w", ackErr)
				return
			}
		}
	}
}

// decodeEnvelope deserializes the default JSON envelope format and extracts
// the session event.
func decodeEnvelope(payload []byte) (*event.Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	var e event.Event
	if err := json.Unmarshal(env.Event, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
