package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/eventlog"
)

func TestStoreAppendAndList(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		e := event.New(event.SourceUser, event.MessageAction{Content: "m"})
		e.ID = int64(i)
		require.NoError(t, s.Append(ctx, "sess-1", e))
	}

	all, err := s.List(ctx, "sess-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	page, err := s.List(ctx, "sess-1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, int64(2), page[0].ID)
}

func TestStoreAppendValidation(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.Error(t, s.Append(ctx, "", &event.Event{ID: 1}))
	require.Error(t, s.Append(ctx, "sess-1", nil))

	unassigned := event.New(event.SourceUser, event.MessageAction{Content: "m"})
	require.Error(t, s.Append(ctx, "sess-1", unassigned))

	first := event.New(event.SourceUser, event.MessageAction{Content: "m"})
	first.ID = 5
	require.NoError(t, s.Append(ctx, "sess-1", first))

	stale := event.New(event.SourceUser, event.MessageAction{Content: "m"})
	stale.ID = 5
	require.Error(t, s.Append(ctx, "sess-1", stale))
}

func TestReplayRebuildsLog(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	l := eventlog.New("sess-1", eventlog.WithStore(s))
	for i := 0; i < 3; i++ {
		_, err := l.Append(ctx, event.New(event.SourceAgent, event.ThinkAction{Thought: "t"}))
		require.NoError(t, err)
	}

	replayed, err := eventlog.Replay(ctx, "sess-1", s)
	require.NoError(t, err)
	require.Equal(t, 3, replayed.Len())

	// New appends continue the id sequence and persist to the same store.
	committed, err := replayed.Append(ctx, event.New(event.SourceAgent, event.ThinkAction{Thought: "u"}))
	require.NoError(t, err)
	require.Equal(t, int64(4), committed.ID)

	all, err := s.List(ctx, "sess-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
}
