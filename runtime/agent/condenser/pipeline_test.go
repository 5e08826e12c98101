package condenser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// stubCondenser scripts a fixed result for pipeline tests.
type stubCondenser struct {
	meta

	result Result
	err    error
	calls  int
}

func (c *stubCondenser) Condense(_ context.Context, events []*event.Event) (Result, error) {
	c.calls++
	if c.err != nil {
		return Result{}, c.err
	}
	if c.result.View == nil && c.result.Condensation == nil {
		return Result{View: event.FromEvents(events)}, nil
	}
	return c.result, nil
}

func TestPipelineValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline()
	require.Error(t, err)
}

func TestPipelineThreadsViews(t *testing.T) {
	t.Parallel()

	masking, err := NewObservationMasking(1)
	require.NoError(t, err)
	recent, err := NewRecentEvents(4, 1)
	require.NoError(t, err)
	p, err := NewPipeline(masking, recent)
	require.NoError(t, err)

	var events []*event.Event
	for i := 0; i < 6; i++ {
		events = appendEvent(events, event.SourceEnvironment, event.CommandObservation{Output: "big"})
	}

	res, err := p.Condense(context.Background(), events)
	require.NoError(t, err)
	require.Nil(t, res.Condensation)
	// Recent trimmed to 4, and the survivors outside masking's window were
	// masked before trimming.
	require.Equal(t, 4, res.View.Len())
	require.Equal(t, event.KindMaskedObservation, res.View.Events[0].Payload.Kind())
	require.Equal(t, event.KindCommandObservation, res.View.Events[3].Payload.Kind())
}

func TestPipelineShortCircuitsOnCondensation(t *testing.T) {
	t.Parallel()

	cond := &stubCondenser{result: condensationResult(event.CondensationAction{Forgotten: []int64{1}})}
	after := &stubCondenser{}
	p, err := NewPipeline(cond, after)
	require.NoError(t, err)

	res, err := p.Condense(context.Background(), messageLog(3))
	require.NoError(t, err)
	require.NotNil(t, res.Condensation)
	require.Zero(t, after.calls)
}

func TestPipelinePropagatesStageError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p, err := NewPipeline(&stubCondenser{}, &stubCondenser{err: boom})
	require.NoError(t, err)

	_, err = p.Condense(context.Background(), messageLog(3))
	require.ErrorIs(t, err, boom)
}

func TestPipelineFlushesStageMetadata(t *testing.T) {
	t.Parallel()

	masking, err := NewObservationMasking(1)
	require.NoError(t, err)
	recent, err := NewRecentEvents(2, 0)
	require.NoError(t, err)
	p, err := NewPipeline(masking, recent)
	require.NoError(t, err)

	rec := &Recorder{}
	var events []*event.Event
	for i := 0; i < 5; i++ {
		events = appendEvent(events, event.SourceEnvironment, event.CommandObservation{Output: "x"})
	}
	_, err = CondensedHistory(context.Background(), p, rec, events)
	require.NoError(t, err)

	// One batch for the pipeline itself plus one per stage.
	require.Len(t, rec.Batches(), 3)
}
