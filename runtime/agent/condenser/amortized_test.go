package condenser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/event"
)

func TestAmortizedForgettingValidation(t *testing.T) {
	t.Parallel()

	_, err := NewAmortizedForgetting(10, 5)
	require.Error(t, err)

	_, err = NewAmortizedForgetting(0, 0)
	require.Error(t, err)

	_, err = NewAmortizedForgetting(10, -1)
	require.Error(t, err)

	c, err := NewAmortizedForgetting(10, 2)
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestAmortizedForgettingBelowThreshold(t *testing.T) {
	t.Parallel()

	c, err := NewAmortizedForgetting(10, 2)
	require.NoError(t, err)

	res, err := c.Condense(context.Background(), messageLog(10))
	require.NoError(t, err)
	require.Nil(t, res.Condensation)
	require.Equal(t, 10, res.View.Len())
}

func TestAmortizedForgettingHalves(t *testing.T) {
	t.Parallel()

	c, err := NewAmortizedForgetting(10, 2)
	require.NoError(t, err)
	ctx := context.Background()

	events := messageLog(12)
	res, err := c.Condense(ctx, events)
	require.NoError(t, err)
	require.NotNil(t, res.Condensation)

	ca := res.Condensation.Action
	require.False(t, ca.HasSummary())
	// Head keeps ids 1-2, tail keeps ids 10-12, middle 3-9 forgotten.
	require.Equal(t, []int64{3, 4, 5, 6, 7, 8, 9}, ca.Forgotten)

	// Appending the condensation and replaying lands at half of max size.
	events = appendEvent(events, event.SourceAgent, ca)
	next, err := c.Condense(ctx, events)
	require.NoError(t, err)
	require.Nil(t, next.Condensation)
	require.Equal(t, 5, next.View.Len())
	require.Equal(t, int64(1), next.View.Events[0].ID)
	require.Equal(t, int64(2), next.View.Events[1].ID)
	require.Equal(t, int64(10), next.View.Events[2].ID)
}

func TestAmortizedForgettingRepeatedGrowth(t *testing.T) {
	t.Parallel()

	c, err := NewAmortizedForgetting(6, 1)
	require.NoError(t, err)
	ctx := context.Background()

	var events []*event.Event
	for i := 0; i < 40; i++ {
		events = appendEvent(events, event.SourceUser, event.MessageAction{Content: "msg"})
		res, err := c.Condense(ctx, events)
		require.NoError(t, err)
		if res.Condensation != nil {
			events = appendEvent(events, event.SourceAgent, res.Condensation.Action)
			res, err = c.Condense(ctx, events)
			require.NoError(t, err)
			require.Nil(t, res.Condensation)
		}
		require.LessOrEqual(t, res.View.Len(), 6)
	}
}
