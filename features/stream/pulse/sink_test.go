package pulse

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"

	clientspulse "github.com/skeinworks/skein/features/stream/pulse/clients/pulse"
	"github.com/skeinworks/skein/runtime/agent/event"
)

type fakePulseClient struct {
	stream    clientspulse.Stream
	streamErr error
	gotName   string
	closed    bool
}

func (f *fakePulseClient) Stream(name string, _ ...streamopts.Stream) (clientspulse.Stream, error) {
	f.gotName = name
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

func (f *fakePulseClient) Close(context.Context) error {
	f.closed = true
	return nil
}

type fakePulseStream struct {
	addErr   error
	sink     clientspulse.Sink
	sinkErr  error
	added    []addedEntry
	entryID  string
	destroys int
}

type addedEntry struct {
	event   string
	payload []byte
}

func (f *fakePulseStream) Add(_ context.Context, evt string, payload []byte) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.added = append(f.added, addedEntry{event: evt, payload: payload})
	if f.entryID == "" {
		return "1-0", nil
	}
	return f.entryID, nil
}

func (f *fakePulseStream) NewSink(_ context.Context, _ string, _ ...streamopts.Sink) (clientspulse.Sink, error) {
	if f.sinkErr != nil {
		return nil, f.sinkErr
	}
	return f.sink, nil
}

func (f *fakePulseStream) Destroy(context.Context) error {
	f.destroys++
	return nil
}

type fakePulseSink struct {
	ch     chan *streaming.Event
	acked  []*streaming.Event
	ackErr error
	closed bool
}

func (f *fakePulseSink) Subscribe() <-chan *streaming.Event { return f.ch }

func (f *fakePulseSink) Ack(_ context.Context, e *streaming.Event) error {
	if f.ackErr != nil {
		return f.ackErr
	}
	f.acked = append(f.acked, e)
	return nil
}

func (f *fakePulseSink) Close(context.Context) { f.closed = true }

func testEvent(id int64) *event.Event {
	return &event.Event{
		ID:        id,
		Source:    event.SourceUser,
		Timestamp: time.Unix(id, 0).UTC(),
		Payload:   event.MessageAction{Content: "hello"},
	}
}

func TestSendPublishesEnvelope(t *testing.T) {
	t.Parallel()

	str := &fakePulseStream{}
	cli := &fakePulseClient{stream: str}

	sink, err := NewSink(Options{Client: cli})
	require.NoError(t, err)

	require.NoError(t, sink.Send(context.Background(), "session-1", testEvent(7)))
	require.Equal(t, "session/session-1", cli.gotName)
	require.Len(t, str.added, 1)
	require.Equal(t, string(event.KindMessageAction), str.added[0].event)

	var env envelope
	require.NoError(t, json.Unmarshal(str.added[0].payload, &env))
	require.Equal(t, "session-1", env.SessionID)
	require.Equal(t, int64(7), env.EventID)
	require.Equal(t, string(event.KindMessageAction), env.Kind)

	var decoded event.Event
	require.NoError(t, json.Unmarshal(env.Event, &decoded))
	msg, ok := decoded.Payload.(event.MessageAction)
	require.True(t, ok)
	require.Equal(t, "hello", msg.Content)
}

func TestSendRequiresSessionID(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(Options{Client: &fakePulseClient{stream: &fakePulseStream{}}})
	require.NoError(t, err)

	err = sink.Send(context.Background(), "", testEvent(1))
	require.EqualError(t, err, "session id is required")
}

func TestCustomStreamID(t *testing.T) {
	t.Parallel()

	str := &fakePulseStream{}
	cli := &fakePulseClient{stream: str}
	sink, err := NewSink(Options{
		Client: cli,
		StreamID: func(sessionID string) (string, error) {
			return "custom/" + sessionID, nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, sink.Send(context.Background(), "s1", testEvent(1)))
	require.Equal(t, "custom/s1", cli.gotName)
}

func TestStreamCreationError(t *testing.T) {
	t.Parallel()

	cli := &fakePulseClient{streamErr: errors.New("boom")}
	sink, err := NewSink(Options{Client: cli})
	require.NoError(t, err)

	err = sink.Send(context.Background(), "s1", testEvent(1))
	require.EqualError(t, err, "boom")
}

func TestAddError(t *testing.T) {
	t.Parallel()

	str := &fakePulseStream{addErr: errors.New("add-failed")}
	sink, err := NewSink(Options{Client: &fakePulseClient{stream: str}})
	require.NoError(t, err)

	err = sink.Send(context.Background(), "s1", testEvent(1))
	require.EqualError(t, err, "add-failed")
}

func TestCloseDelegates(t *testing.T) {
	t.Parallel()

	cli := &fakePulseClient{stream: &fakePulseStream{}}
	sink, err := NewSink(Options{Client: cli})
	require.NoError(t, err)

	require.NoError(t, sink.Close(context.Background()))
	require.True(t, cli.closed)
}

func TestNewSinkRequiresClient(t *testing.T) {
	t.Parallel()

	_, err := NewSink(Options{})
	require.Error(t, err)
}
