package condenser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/model"
)

// attentionToolName is the forced tool the ranking completion must call.
const attentionToolName = "select_context"

// attentionPrompt instructs the model to rank events by importance.
const attentionPrompt = `You prune an AI agent's working history. Rank the listed events by how
important they are for the agent to finish its current task, most
important first. Favor standing user instructions, recent file state and
unresolved errors. Call select_context with the ranked event ids.`

type (
	// LLMAttention asks the model which events matter instead of assuming
	// the newest ones do: it forces a ranking tool call over the candidate
	// events and forgets whatever the model leaves unranked past the
	// retention budget. Nothing is summarized; forgotten events are simply
	// dropped.
	LLMAttention struct {
		meta

		client    model.Client
		modelID   string
		maxSize   int
		keepFirst int
	}

	// LLMAttentionOptions configures NewLLMAttention.
	LLMAttentionOptions struct {
		// Client issues the ranking completions. Required, and must support
		// function calling.
		Client model.Client
		// ModelID optionally overrides the client's default model.
		ModelID string
		// MaxSize is the view size that triggers condensation.
		MaxSize int
		// KeepFirst is the number of leading events always retained.
		KeepFirst int
	}
)

// NewLLMAttention returns an importance-ranking condenser. It fails fast
// when the client reports no function calling support.
func NewLLMAttention(opts LLMAttentionOptions) (*LLMAttention, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if cr, ok := opts.Client.(model.CapabilityReporter); ok && !cr.Capabilities().FunctionCalling {
		return nil, fmt.Errorf("attention condensation requires a client with function calling support")
	}
	if err := validateHalving(opts.MaxSize, opts.KeepFirst); err != nil {
		return nil, err
	}
	return &LLMAttention{
		client:    opts.Client,
		modelID:   opts.ModelID,
		maxSize:   opts.MaxSize,
		keepFirst: opts.KeepFirst,
	}, nil
}

// Condense applies the rolling contract.
func (c *LLMAttention) Condense(ctx context.Context, events []*event.Event) (Result, error) {
	return Roll(ctx, c, events)
}

// ShouldCondense triggers once the view exceeds maxSize.
func (c *LLMAttention) ShouldCondense(view *event.View) bool {
	return view.Len() > c.maxSize
}

// GetCondensation keeps the head plus the model's highest-ranked candidates
// up to half of maxSize, backfilling with the newest candidates when the
// ranking comes back short, and forgets the rest by explicit id list.
func (c *LLMAttention) GetCondensation(ctx context.Context, view *event.View) (*Condensation, error) {
	head := c.keepFirst
	if head > view.Len() {
		head = view.Len()
	}
	candidates := view.Events[head:]
	candidateIDs := realIDs(candidates)
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	budget := c.maxSize/2 - head
	if budget < 0 {
		budget = 0
	}

	ranked, err := c.rank(ctx, candidates)
	if err != nil {
		return nil, err
	}

	keep := make(map[int64]struct{}, budget)
	valid := make(map[int64]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		valid[id] = struct{}{}
	}
	for _, id := range ranked {
		if len(keep) >= budget {
			break
		}
		if _, ok := valid[id]; ok {
			keep[id] = struct{}{}
		}
	}
	// Backfill with the most recent candidates the model did not rank.
	for i := len(candidateIDs) - 1; i >= 0 && len(keep) < budget; i-- {
		keep[candidateIDs[i]] = struct{}{}
	}

	forgotten := make([]int64, 0, len(candidateIDs)-len(keep))
	for _, id := range candidateIDs {
		if _, ok := keep[id]; !ok {
			forgotten = append(forgotten, id)
		}
	}
	if len(forgotten) == 0 {
		return nil, nil
	}

	c.AddMetadata("ranked_count", len(ranked))
	c.AddMetadata("forgotten_count", len(forgotten))
	return &Condensation{Action: event.CondensationAction{Forgotten: forgotten}}, nil
}

func (c *LLMAttention) rank(ctx context.Context, candidates []*event.Event) ([]int64, error) {
	resp, err := c.client.Complete(ctx, &model.Request{
		Model: c.modelID,
		Messages: []*model.Message{
			{Role: model.ConversationRoleSystem, Content: attentionPrompt},
			{Role: model.ConversationRoleUser, Content: transcript(candidates, defaultMaxEventLength)},
		},
		Tools: []*model.ToolDefinition{{
			Name:        attentionToolName,
			Description: "Report the event ids to keep, ranked most important first.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ids": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "integer"},
					},
				},
				"required": []any{"ids"},
			},
		}},
		ToolChoice: &model.ToolChoice{Mode: model.ToolChoiceModeTool, Name: attentionToolName},
	})
	if err != nil {
		return nil, fmt.Errorf("attention ranking failed: %w", err)
	}
	for _, call := range resp.ToolCalls {
		if call.Name != attentionToolName {
			continue
		}
		args, ok := call.Payload.(map[string]any)
		if !ok {
			break
		}
		return toIDs(args["ids"]), nil
	}
	return nil, fmt.Errorf("attention ranking returned no %s call", attentionToolName)
}

// toIDs coerces a decoded JSON array into event ids, tolerating the numeric
// types different decoders produce.
func toIDs(v any) []int64 {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(arr))
	for _, item := range arr {
		switch n := item.(type) {
		case float64:
			ids = append(ids, int64(n))
		case int64:
			ids = append(ids, n)
		case int:
			ids = append(ids, int64(n))
		case json.Number:
			if id, err := n.Int64(); err == nil {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
