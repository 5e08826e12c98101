package condenser

import (
	"context"
	"fmt"
	"strings"

	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/model"
)

// summaryPrompt instructs the model to fold forgotten events into a running
// summary that keeps the information an agent needs to continue the task.
const summaryPrompt = `You condense an AI agent's working history. Merge the previous summary
(if any) with the events below into a single dense summary. Preserve, in
this order of priority:

1. USER_CONTEXT: standing user requests and constraints.
2. STATE: file edits and their current content, test results, command
   outcomes, version control operations.
3. COMPLETED and PENDING tasks, each in one short sentence.

Prefer concrete identifiers (paths, commands, ids) over prose. Omit
anything the agent can rediscover cheaply. Respond with the summary text
only.`

type (
	// LLMSummarizing is the halving strategy that replaces the forgotten
	// middle with an LLM-written free-text summary. Each condensation feeds
	// the previous summary back in, so the summary rolls forward across
	// triggers instead of losing old context.
	LLMSummarizing struct {
		meta

		client         model.Client
		modelID        string
		maxSize        int
		keepFirst      int
		maxEventLength int
	}

	// LLMSummarizingOptions configures NewLLMSummarizing.
	LLMSummarizingOptions struct {
		// Client issues the summarization completions. Required.
		Client model.Client
		// ModelID optionally overrides the client's default model.
		ModelID string
		// MaxSize is the view size that triggers condensation.
		MaxSize int
		// KeepFirst is the number of leading events always retained. Must be
		// strictly less than half of MaxSize.
		KeepFirst int
		// MaxEventLength bounds the rendered length of each forgotten event
		// in the prompt. Defaults to 10k runes.
		MaxEventLength int
	}
)

// NewLLMSummarizing returns a summarizing halving condenser.
func NewLLMSummarizing(opts LLMSummarizingOptions) (*LLMSummarizing, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if err := validateHalving(opts.MaxSize, opts.KeepFirst); err != nil {
		return nil, err
	}
	if opts.MaxEventLength == 0 {
		opts.MaxEventLength = defaultMaxEventLength
	}
	return &LLMSummarizing{
		client:         opts.Client,
		modelID:        opts.ModelID,
		maxSize:        opts.MaxSize,
		keepFirst:      opts.KeepFirst,
		maxEventLength: opts.MaxEventLength,
	}, nil
}

// Condense applies the rolling contract.
func (c *LLMSummarizing) Condense(ctx context.Context, events []*event.Event) (Result, error) {
	return Roll(ctx, c, events)
}

// ShouldCondense triggers once the view exceeds maxSize.
func (c *LLMSummarizing) ShouldCondense(view *event.View) bool {
	return view.Len() > c.maxSize
}

// GetCondensation summarizes the forgotten middle of the view. One slot of
// the target half is reserved for the summary event the condensation will
// insert at offset keepFirst.
func (c *LLMSummarizing) GetCondensation(ctx context.Context, view *event.View) (*Condensation, error) {
	_, forgotten, _ := splitHalving(view, c.keepFirst, c.maxSize/2, true)
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

// summarizeEvents issues the rolling summarization completion shared by the
// size-triggered and token-triggered summarizers.
func summarizeEvents(ctx context.Context, client model.Client, modelID, previous string, forgotten []*event.Event, maxEventLength int) (string, *model.Response, error) {
	var b strings.Builder
	if previous != "" {
		fmt.Fprintf(&b, "Previous summary:\n%s\n\n", previous)
	}
	b.WriteString("Events to fold in:\n")
	b.WriteString(transcript(forgotten, maxEventLength))

	return completeText(ctx, client, &model.Request{
		Model: modelID,
		Messages: []*model.Message{
			{Role: model.ConversationRoleSystem, Content: summaryPrompt},
			{Role: model.ConversationRoleUser, Content: b.String()},
		},
	})
}

// previousSummary returns the text of the synthetic summary event currently
// sitting at the summary offset, if one is there.
func previousSummary(view *event.View, offset int) string {
	if offset >= view.Len() {
		return ""
	}
	if so, ok := view.Events[offset].Payload.(event.SummaryObservation); ok {
		return so.Summary
	}
	return ""
}
