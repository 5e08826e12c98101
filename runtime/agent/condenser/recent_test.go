package condenser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/event"
)

func TestRecentEventsValidation(t *testing.T) {
	t.Parallel()

	_, err := NewRecentEvents(0, 0)
	require.Error(t, err)

	_, err = NewRecentEvents(5, 6)
	require.Error(t, err)

	_, err = NewRecentEvents(5, -1)
	require.Error(t, err)

	c, err := NewRecentEvents(5, 1)
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestRecentEventsWithinWindow(t *testing.T) {
	t.Parallel()

	c, err := NewRecentEvents(10, 1)
	require.NoError(t, err)

	res, err := c.Condense(context.Background(), messageLog(10))
	require.NoError(t, err)
	require.Nil(t, res.Condensation)
	require.Equal(t, 10, res.View.Len())
}

func TestRecentEventsTrimsMiddle(t *testing.T) {
	t.Parallel()

	c, err := NewRecentEvents(5, 2)
	require.NoError(t, err)

	res, err := c.Condense(context.Background(), messageLog(12))
	require.NoError(t, err)
	require.Nil(t, res.Condensation)
	require.Equal(t, 5, res.View.Len())
	require.Equal(t, int64(1), res.View.Events[0].ID)
	require.Equal(t, int64(2), res.View.Events[1].ID)
	require.Equal(t, int64(10), res.View.Events[2].ID)
	require.Equal(t, int64(12), res.View.Events[4].ID)
}

func TestRecentEventsPreservesSystemMessage(t *testing.T) {
	t.Parallel()

	// System message sits in the middle, outside both head and tail.
	var events []*event.Event
	events = appendEvent(events, event.SourceUser, event.MessageAction{Content: "a"})
	events = appendEvent(events, event.SourceUser, event.MessageAction{Content: "b"})
	events = appendEvent(events, event.SourceAgent, event.SystemMessageAction{Content: "rules"})
	for i := 0; i < 9; i++ {
		events = appendEvent(events, event.SourceUser, event.MessageAction{Content: "filler"})
	}

	c, err := NewRecentEvents(4, 1)
	require.NoError(t, err)
	res, err := c.Condense(context.Background(), events)
	require.NoError(t, err)

	found := false
	for _, e := range res.View.Events {
		if e.Payload.Kind() == event.KindSystemMessageAction {
			found = true
		}
	}
	require.True(t, found)
}

func TestRecentEventsForgottenStillHidden(t *testing.T) {
	t.Parallel()

	events := messageLog(8)
	events = appendEvent(events, event.SourceAgent, event.CondensationAction{Forgotten: []int64{1, 2, 3}})

	c, err := NewRecentEvents(3, 0)
	require.NoError(t, err)
	res, err := c.Condense(context.Background(), events)
	require.NoError(t, err)
	require.Equal(t, 3, res.View.Len())
	for _, e := range res.View.Events {
		require.Greater(t, e.ID, int64(3))
	}
}
