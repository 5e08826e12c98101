package condenser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/model"
)

func TestTokenAwareValidation(t *testing.T) {
	t.Parallel()

	est := model.HeuristicEstimator{}

	_, err := NewTokenAware(TokenAwareOptions{Estimator: est, MaxInputTokens: 1000})
	require.Error(t, err)

	// The estimator is explicit configuration, never defaulted.
	_, err = NewTokenAware(TokenAwareOptions{Client: &fakeClient{}, MaxInputTokens: 1000})
	require.Error(t, err)

	_, err = NewTokenAware(TokenAwareOptions{Client: &fakeClient{}, Estimator: est})
	require.Error(t, err)

	_, err = NewTokenAware(TokenAwareOptions{Client: &fakeClient{}, Estimator: est, MaxInputTokens: 1000, Threshold: 1.5})
	require.Error(t, err)

	c, err := NewTokenAware(TokenAwareOptions{Client: &fakeClient{}, Estimator: est, MaxInputTokens: 1000})
	require.NoError(t, err)
	require.NotNil(t, c)
}

// fixedEstimator charges a fixed cost per message.
type fixedEstimator struct{ perMessage int }

func (e fixedEstimator) EstimateTokens(msgs []*model.Message) int {
	return e.perMessage * len(msgs)
}

func TestTokenAwareTriggersOnBudget(t *testing.T) {
	t.Parallel()

	client := &fakeClient{resps: []*model.Response{textResponse("s")}}
	c, err := NewTokenAware(TokenAwareOptions{
		Client:         client,
		Estimator:      fixedEstimator{perMessage: 100},
		MaxInputTokens: 1000,
		Threshold:      0.8,
		KeepFirst:      1,
	})
	require.NoError(t, err)
	ctx := context.Background()

	// 7 messages = 700 estimated tokens, below the 800 trigger.
	res, err := c.Condense(ctx, messageLog(7))
	require.NoError(t, err)
	require.Nil(t, res.Condensation)

	// 8 messages crosses the threshold.
	res, err = c.Condense(ctx, messageLog(8))
	require.NoError(t, err)
	require.NotNil(t, res.Condensation)

	ca := res.Condensation.Action
	require.Equal(t, "s", ca.Summary)
	require.Equal(t, 1, ca.SummaryOffset)
	// Target is half the view (4), one slot reserved for the summary:
	// head id 1, tail ids 7-8, middle 2-6 forgotten.
	require.Equal(t, int64(2), ca.ForgottenStart)
	require.Equal(t, int64(6), ca.ForgottenEnd)

	events := appendEvent(messageLog(8), event.SourceAgent, ca)
	next, err := c.Condense(ctx, events)
	require.NoError(t, err)
	require.Nil(t, next.Condensation)
	require.Equal(t, 4, next.View.Len())
}

func TestTokenAwarePropagatesModelError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: context.DeadlineExceeded}
	c, err := NewTokenAware(TokenAwareOptions{
		Client:         client,
		Estimator:      fixedEstimator{perMessage: 1000},
		MaxInputTokens: 1000,
		KeepFirst:      0,
	})
	require.NoError(t, err)

	_, err = c.Condense(context.Background(), messageLog(4))
	require.Error(t, err)
}
