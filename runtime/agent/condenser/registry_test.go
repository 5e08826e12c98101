package condenser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/model"
)

func TestRegistryRejectsDuplicateKind(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	factory := func(Config, Deps) (Condenser, error) { return NewNoOp(), nil }
	require.NoError(t, r.Register("custom", factory))
	require.Error(t, r.Register("custom", factory))
	require.Error(t, r.Register("", factory))
	require.Error(t, r.Register("other", nil))
}

func TestRegistryUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := DefaultRegistry().Build(Config{Kind: "nope"}, Deps{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
}

func TestDefaultRegistryBuildsEveryKind(t *testing.T) {
	t.Parallel()

	deps := Deps{
		Client:    &fakeClient{caps: model.Capabilities{FunctionCalling: true}},
		Estimator: model.HeuristicEstimator{},
	}
	cases := []Config{
		{Kind: KindNoOp},
		{Kind: KindRecentEvents, MaxEvents: 10, KeepFirst: 1},
		{Kind: KindAmortizedForgetting, MaxSize: 10, KeepFirst: 2},
		{Kind: KindObservationMasking, AttentionWindow: 5},
		{Kind: KindBrowserOutput, AttentionWindow: 1},
		{Kind: KindLLMSummarizing, MaxSize: 20, KeepFirst: 3},
		{Kind: KindLLMAttention, MaxSize: 20, KeepFirst: 3},
		{Kind: KindStructuredSummary, MaxSize: 20, KeepFirst: 3},
		{Kind: KindTokenAware, MaxInputTokens: 10000, Threshold: 0.8},
		{Kind: KindTaskCompletion},
	}
	r := DefaultRegistry()
	for _, cfg := range cases {
		c, err := r.Build(cfg, deps)
		require.NoError(t, err, "kind %s", cfg.Kind)
		require.NotNil(t, c)
	}
}

func TestRegistryBuildSurfacesConstructionErrors(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	// keep_first at half of max_size is rejected.
	_, err := r.Build(Config{Kind: KindAmortizedForgetting, MaxSize: 10, KeepFirst: 5}, Deps{})
	require.Error(t, err)

	// token_aware without an estimator is a configuration error.
	_, err = r.Build(Config{Kind: KindTokenAware, MaxInputTokens: 1000}, Deps{Client: &fakeClient{}})
	require.Error(t, err)
}

func TestRegistryBuildsNestedPipeline(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Kind: KindPipeline,
		Stages: []Config{
			{Kind: KindObservationMasking, AttentionWindow: 5},
			{Kind: KindAmortizedForgetting, MaxSize: 10, KeepFirst: 2},
		},
	}
	c, err := DefaultRegistry().Build(cfg, Deps{})
	require.NoError(t, err)

	res, err := c.Condense(context.Background(), messageLog(12))
	require.NoError(t, err)
	require.NotNil(t, res.Condensation)
}

func TestRegistryPipelineStageErrors(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	_, err := r.Build(Config{Kind: KindPipeline}, Deps{})
	require.Error(t, err)

	_, err = r.Build(Config{
		Kind:   KindPipeline,
		Stages: []Config{{Kind: "nope"}},
	}, Deps{})
	require.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig([]byte(`
kind: pipeline
stages:
  - kind: browser_output
    attention_window: 2
  - kind: llm_summarizing
    max_size: 40
    keep_first: 4
    model: small-summarizer
`))
	require.NoError(t, err)
	require.Equal(t, KindPipeline, cfg.Kind)
	require.Len(t, cfg.Stages, 2)
	require.Equal(t, 2, cfg.Stages[0].AttentionWindow)
	require.Equal(t, "small-summarizer", cfg.Stages[1].Model)
	require.Equal(t, 40, cfg.Stages[1].MaxSize)
}

func TestParseConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig([]byte(`max_size: 10`))
	require.Error(t, err)

	_, err = ParseConfig([]byte(`{kind: [`))
	require.Error(t, err)
}
