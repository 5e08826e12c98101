package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/event"
)

func pairEvents(n int, command, output string) []*event.Event {
	var events []*event.Event
	id := int64(1)
	for i := 0; i < n; i++ {
		a := event.New(event.SourceAgent, event.RunCommandAction{Command: command})
		a.ID = id
		id++
		o := event.New(event.SourceEnvironment, event.CommandObservation{Command: command, Output: output, ExitCode: 1})
		o.ID = id
		id++
		events = append(events, a, o)
	}
	return events
}

func TestStuckDetectorTripsOnRepetition(t *testing.T) {
	t.Parallel()

	d := StuckDetector{}
	require.False(t, d.IsStuck(pairEvents(3, "go test", "FAIL")))
	require.True(t, d.IsStuck(pairEvents(4, "go test", "FAIL")))
}

func TestStuckDetectorDifferentOutputsAreProgress(t *testing.T) {
	t.Parallel()

	events := pairEvents(3, "go test", "FAIL")
	a := event.New(event.SourceAgent, event.RunCommandAction{Command: "go test"})
	a.ID = 7
	o := event.New(event.SourceEnvironment, event.CommandObservation{Command: "go test", Output: "ok"})
	o.ID = 8
	events = append(events, a, o)

	require.False(t, StuckDetector{}.IsStuck(events))
}

func TestStuckDetectorUserMessageResetsWindow(t *testing.T) {
	t.Parallel()

	events := pairEvents(4, "go test", "FAIL")
	m := event.New(event.SourceUser, event.MessageAction{Content: "try something else"})
	m.ID = 9
	events = append(events, m)
	events = append(events, pairEvents(2, "go test", "FAIL")...)

	require.False(t, StuckDetector{}.IsStuck(events))
}

func TestStuckDetectorCustomWindow(t *testing.T) {
	t.Parallel()

	d := StuckDetector{Repeats: 2}
	require.True(t, d.IsStuck(pairEvents(2, "ls", "a")))
	require.False(t, d.IsStuck(pairEvents(1, "ls", "a")))
}
