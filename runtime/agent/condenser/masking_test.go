package condenser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/event"
)

func TestObservationMaskingValidation(t *testing.T) {
	t.Parallel()

	_, err := NewObservationMasking(0)
	require.Error(t, err)

	c, err := NewObservationMasking(3)
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestObservationMaskingMasksOldObservations(t *testing.T) {
	t.Parallel()

	var events []*event.Event
	events = appendEvent(events, event.SourceAgent, event.RunCommandAction{Command: "ls"})
	events = appendEvent(events, event.SourceEnvironment, event.CommandObservation{Command: "ls", Output: "huge output"})
	events = appendEvent(events, event.SourceAgent, event.RunCommandAction{Command: "cat f"})
	events = appendEvent(events, event.SourceEnvironment, event.CommandObservation{Command: "cat f", Output: "recent output"})
	events = appendEvent(events, event.SourceAgent, event.ThinkAction{Thought: "next"})

	c, err := NewObservationMasking(3)
	require.NoError(t, err)
	res, err := c.Condense(context.Background(), events)
	require.NoError(t, err)
	require.Nil(t, res.Condensation)
	require.Equal(t, 5, res.View.Len())

	// The old observation (index 1) is masked; everything in the window and
	// every action keeps its payload.
	masked, ok := res.View.Events[1].Payload.(event.MaskedObservation)
	require.True(t, ok)
	require.Equal(t, MaskPlaceholder, masked.Placeholder)
	require.Equal(t, int64(2), res.View.Events[1].ID)

	require.Equal(t, event.KindRunCommandAction, res.View.Events[0].Payload.Kind())
	require.Equal(t, event.KindCommandObservation, res.View.Events[3].Payload.Kind())

	// The original log is untouched.
	require.Equal(t, event.KindCommandObservation, events[1].Payload.Kind())
}

func TestObservationMaskingAllWithinWindow(t *testing.T) {
	t.Parallel()

	var events []*event.Event
	events = appendEvent(events, event.SourceEnvironment, event.CommandObservation{Output: "a"})
	events = appendEvent(events, event.SourceEnvironment, event.CommandObservation{Output: "b"})

	c, err := NewObservationMasking(5)
	require.NoError(t, err)
	res, err := c.Condense(context.Background(), events)
	require.NoError(t, err)
	for _, e := range res.View.Events {
		require.NotEqual(t, event.KindMaskedObservation, e.Payload.Kind())
	}
}

func TestObservationMaskingSparesSummary(t *testing.T) {
	t.Parallel()

	events := messageLog(4)
	events = appendEvent(events, event.SourceAgent, event.CondensationAction{Forgotten: []int64{1, 2}, Summary: "s", SummaryOffset: 0})
	for i := 0; i < 4; i++ {
		events = appendEvent(events, event.SourceEnvironment, event.CommandObservation{Output: "x"})
	}

	c, err := NewObservationMasking(2)
	require.NoError(t, err)
	res, err := c.Condense(context.Background(), events)
	require.NoError(t, err)

	require.Equal(t, event.KindSummaryObservation, res.View.Events[0].Payload.Kind())
}

func TestBrowserOutputValidation(t *testing.T) {
	t.Parallel()

	_, err := NewBrowserOutput(0)
	require.Error(t, err)

	c, err := NewBrowserOutput(1)
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestBrowserOutputMasksOldPages(t *testing.T) {
	t.Parallel()

	var events []*event.Event
	events = appendEvent(events, event.SourceEnvironment, event.BrowserObservation{URL: "https://a", Content: "page a"})
	events = appendEvent(events, event.SourceAgent, event.ThinkAction{Thought: "hm"})
	events = appendEvent(events, event.SourceEnvironment, event.BrowserObservation{URL: "https://b", Content: "page b"})
	events = appendEvent(events, event.SourceEnvironment, event.BrowserObservation{URL: "https://c", Content: "page c"})

	c, err := NewBrowserOutput(2)
	require.NoError(t, err)
	res, err := c.Condense(context.Background(), events)
	require.NoError(t, err)
	require.Nil(t, res.Condensation)

	first, ok := res.View.Events[0].Payload.(event.BrowserObservation)
	require.True(t, ok)
	require.Equal(t, "https://a", first.URL)
	require.Equal(t, BrowserContentPlaceholder, first.Content)

	// Non-browser events and the newest two pages are untouched.
	require.Equal(t, event.KindThinkAction, res.View.Events[1].Payload.Kind())
	require.Equal(t, "page b", res.View.Events[2].Payload.(event.BrowserObservation).Content)
	require.Equal(t, "page c", res.View.Events[3].Payload.(event.BrowserObservation).Content)
}
