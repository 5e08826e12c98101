package condenser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/model"
)

// structuredToolName is the forced tool the summarization completion must
// call.
const structuredToolName = "summarize_context"

// stateSummarySchema is the JSON Schema the model's tool payload must
// satisfy before it is accepted as a summary.
const stateSummarySchema = `{
	"type": "object",
	"properties": {
		"user_context":    {"type": "string"},
		"completed_tasks": {"type": "array", "items": {"type": "string"}},
		"pending_tasks":   {"type": "array", "items": {"type": "string"}},
		"files_modified":  {"type": "array", "items": {"type": "string"}},
		"test_status":     {"type": "string"},
		"version_control": {"type": "string"}
	},
	"required": ["user_context", "completed_tasks", "pending_tasks"],
	"additionalProperties": false
}`

// structuredPrompt instructs the model to fill the state summary fields.
const structuredPrompt = `You condense an AI agent's working history into a structured state
summary. Merge the previous summary (if any) with the events below and
call summarize_context with the result. Keep every standing user request
in user_context, list tasks as short imperative sentences, and record
file paths exactly as they appear.`

type (
	// StructuredSummary is the halving strategy that replaces the forgotten
	// middle with a schema-validated state summary instead of free text. The
	// model is forced into a tool call whose payload must satisfy
	// stateSummarySchema, which keeps summaries machine-checkable and
	// resistant to the drift free-text summaries accumulate.
	StructuredSummary struct {
		meta

		client    model.Client
		modelID   string
		maxSize   int
		keepFirst int
		schema    *jsonschema.Schema
	}

	// StructuredSummaryOptions configures NewStructuredSummary.
	StructuredSummaryOptions struct {
		// Client issues the summarization completions. Required, and must
		// support function calling.
		Client model.Client
		// ModelID optionally overrides the client's default model.
		ModelID string
		// MaxSize is the view size that triggers condensation.
		MaxSize int
		// KeepFirst is the number of leading events always retained.
		KeepFirst int
	}

	// StateSummary is the validated shape of a structured summary payload.
	StateSummary struct {
		UserContext    string   `json:"user_context"`
		CompletedTasks []string `json:"completed_tasks"`
		PendingTasks   []string `json:"pending_tasks"`
		FilesModified  []string `json:"files_modified,omitempty"`
		TestStatus     string   `json:"test_status,omitempty"`
		VersionControl string   `json:"version_control,omitempty"`
	}
)

// NewStructuredSummary returns a schema-validated summarizing condenser. It
// fails fast when the client reports no function calling support.
func NewStructuredSummary(opts StructuredSummaryOptions) (*StructuredSummary, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if cr, ok := opts.Client.(model.CapabilityReporter); ok && !cr.Capabilities().FunctionCalling {
		return nil, fmt.Errorf("structured summarization requires a client with function calling support")
	}
	if err := validateHalving(opts.MaxSize, opts.KeepFirst); err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(stateSummarySchema))
	if err != nil {
		return nil, fmt.Errorf("parse state summary schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("state_summary.json", doc); err != nil {
		return nil, fmt.Errorf("register state summary schema: %w", err)
	}
	schema, err := compiler.Compile("state_summary.json")
	if err != nil {
		return nil, fmt.Errorf("compile state summary schema: %w", err)
	}

	return &StructuredSummary{
		client:    opts.Client,
		modelID:   opts.ModelID,
		maxSize:   opts.MaxSize,
		keepFirst: opts.KeepFirst,
		schema:    schema,
	}, nil
}

// Condense applies the rolling contract.
func (c *StructuredSummary) Condense(ctx context.Context, events []*event.Event) (Result, error) {
	return Roll(ctx, c, events)
}

// ShouldCondense triggers once the view exceeds maxSize.
func (c *StructuredSummary) ShouldCondense(view *event.View) bool {
	return view.Len() > c.maxSize
}

// GetCondensation forces a summarize_context call over the forgotten middle,
// validates the payload against the schema, and renders it as the summary
// text carried by the condensation.
func (c *StructuredSummary) GetCondensation(ctx context.Context, view *event.View) (*Condensation, error) {
	_, forgotten, _ := splitHalving(view, c.keepFirst, c.maxSize/2, true)
	start, end, ok := idRange(forgotten)
	if !ok {
		return nil, nil
	}

	summary, err := c.summarize(ctx, previousSummary(view, c.keepFirst), forgotten)
	if err != nil {
		return nil, err
	}

	text := summary.Render()
	c.AddMetadata("summary", text)
	c.AddMetadata("forgotten_count", len(realIDs(forgotten)))

	return &Condensation{Action: event.CondensationAction{
		ForgottenStart: start,
		ForgottenEnd:   end,
		Summary:        text,
		SummaryOffset:  c.keepFirst,
	}}, nil
}

func (c *StructuredSummary) summarize(ctx context.Context, previous string, forgotten []*event.Event) (*StateSummary, error) {
	var b strings.Builder
	if previous != "" {
		fmt.Fprintf(&b, "Previous summary:\n%s\n\n", previous)
	}
	b.WriteString("Events to fold in:\n")
	b.WriteString(transcript(forgotten, defaultMaxEventLength))

	resp, err := c.client.Complete(ctx, &model.Request{
		Model: c.modelID,
		Messages: []*model.Message{
			{Role: model.ConversationRoleSystem, Content: structuredPrompt},
			{Role: model.ConversationRoleUser, Content: b.String()},
		},
		Tools: []*model.ToolDefinition{{
			Name:        structuredToolName,
			Description: "Record the condensed agent state.",
			InputSchema: json.RawMessage(stateSummarySchema),
		}},
		ToolChoice: &model.ToolChoice{Mode: model.ToolChoiceModeTool, Name: structuredToolName},
	})
	if err != nil {
		return nil, fmt.Errorf("structured summarization failed: %w", err)
	}

	for _, call := range resp.ToolCalls {
		if call.Name != structuredToolName {
			continue
		}
		if err := c.schema.Validate(call.Payload); err != nil {
			return nil, fmt.Errorf("structured summary payload rejected: %w", err)
		}
		raw, err := json.Marshal(call.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode structured summary payload: %w", err)
		}
		var summary StateSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			return nil, fmt.Errorf("decode structured summary payload: %w", err)
		}
		return &summary, nil
	}
	return nil, fmt.Errorf("structured summarization returned no %s call", structuredToolName)
}

// Render formats the summary as the text carried by the condensation and
// shown to the model in place of the forgotten events.
func (s *StateSummary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "USER CONTEXT: %s\n", s.UserContext)
	writeList(&b, "COMPLETED", s.CompletedTasks)
	writeList(&b, "PENDING", s.PendingTasks)
	writeList(&b, "FILES MODIFIED", s.FilesModified)
	if s.TestStatus != "" {
		fmt.Fprintf(&b, "TESTS: %s\n", s.TestStatus)
	}
	if s.VersionControl != "" {
		fmt.Fprintf(&b, "VERSION CONTROL: %s\n", s.VersionControl)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
