package condenser

import (
	"context"
	"fmt"

	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/model"
)

type (
	// TokenAware triggers on the estimated token footprint of the view
	// rather than on event count: long events fill a context window at small
	// view sizes and short ones never do, so counting events alone either
	// condenses too late or too eagerly. When the estimate crosses
	// threshold * maxInputTokens it halves the view and summarizes the
	// forgotten middle like LLMSummarizing.
	//
	// The estimator is explicit configuration. A silently defaulted
	// heuristic would make the trigger point depend on which client happens
	// to be wired in, so construction fails without one.
	TokenAware struct {
		meta

		client         model.Client
		modelID        string
		estimator      model.TokenEstimator
		maxInputTokens int
		threshold      float64
		keepFirst      int
		maxEventLength int
	}

	// TokenAwareOptions configures NewTokenAware.
	TokenAwareOptions struct {
		// Client issues the summarization completions. Required.
		Client model.Client
		// ModelID optionally overrides the client's default model.
		ModelID string
		// Estimator measures the prompt footprint of a view. Required.
		Estimator model.TokenEstimator
		// MaxInputTokens is the context budget being protected. Required.
		MaxInputTokens int
		// Threshold is the fraction of MaxInputTokens that triggers
		// condensation, in (0, 1]. Defaults to 0.8.
		Threshold float64
		// KeepFirst is the number of leading events always retained.
		KeepFirst int
		// MaxEventLength bounds the rendered length of each forgotten event
		// in the prompt. Defaults to 10k runes.
		MaxEventLength int
	}
)

// NewTokenAware returns a token-budget-triggered summarizing condenser.
func NewTokenAware(opts TokenAwareOptions) (*TokenAware, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if opts.Estimator == nil {
		return nil, fmt.Errorf("token estimator is required")
	}
	if opts.MaxInputTokens < 1 {
		return nil, fmt.Errorf("max input tokens %d must be at least 1", opts.MaxInputTokens)
	}
	if opts.Threshold == 0 {
		opts.Threshold = 0.8
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("threshold %v must be in (0, 1]", opts.Threshold)
	}
	if opts.KeepFirst < 0 {
		return nil, fmt.Errorf("keep first %d must be non-negative", opts.KeepFirst)
	}
	if opts.MaxEventLength == 0 {
		opts.MaxEventLength = defaultMaxEventLength
	}
	return &TokenAware{
		client:         opts.Client,
		modelID:        opts.ModelID,
		estimator:      opts.Estimator,
		maxInputTokens: opts.MaxInputTokens,
		threshold:      opts.Threshold,
		keepFirst:      opts.KeepFirst,
		maxEventLength: opts.MaxEventLength,
	}, nil
}

// Condense applies the rolling contract.
func (c *TokenAware) Condense(ctx context.Context, events []*event.Event) (Result, error) {
	return Roll(ctx, c, events)
}

// ShouldCondense triggers once the estimated prompt footprint of the view
// crosses the configured fraction of the token budget.
func (c *TokenAware) ShouldCondense(view *event.View) bool {
	estimated := c.estimator.EstimateTokens(viewMessages(view))
	return float64(estimated) >= c.threshold*float64(c.maxInputTokens)
}

// GetCondensation halves the current view and summarizes the forgotten
// middle. The target is half of the view length since the trigger carries no
// event-count bound of its own.
func (c *TokenAware) GetCondensation(ctx context.Context, view *event.View) (*Condensation, error) {
	target := view.Len() / 2
	if target <= c.keepFirst {
		target = c.keepFirst + 1
	}
	_, forgotten, _ := splitHalving(view, c.keepFirst, target, true)
	start, end, ok := idRange(forgotten)
	if !ok {
		return nil, nil
	}

	summary, resp, err := summarizeEvents(ctx, c.client, c.modelID, previousSummary(view, c.keepFirst), forgotten, c.maxEventLength)
	if err != nil {
		return nil, err
	}

	c.AddMetadata("summary", summary)
	c.AddMetadata("forgotten_count", len(realIDs(forgotten)))
	c.AddMetadata("input_tokens", resp.Usage.InputTokens)
	c.AddMetadata("output_tokens", resp.Usage.OutputTokens)

	return &Condensation{Action: event.CondensationAction{
		ForgottenStart: start,
		ForgottenEnd:   end,
		Summary:        summary,
		SummaryOffset:  c.keepFirst,
	}}, nil
}
