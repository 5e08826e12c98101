// Package anthropic provides a model.Client backed by the Anthropic Claude
// Messages API. It translates normalized requests into anthropic.Message
// calls using github.com/anthropics/anthropic-sdk-go and maps responses
// (text, tool calls, usage) back into the generic structures.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/skeinworks/skein/runtime/agent/model"
)

type (
	// MessagesClient captures the subset of the Anthropic SDK client used by
	// the adapter. It is satisfied by *sdk.MessageService so callers can pass
	// either a real client or a mock in tests.
	MessagesClient interface {
		New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
	}

	// Options configures the adapter.
	Options struct {
		// DefaultModel is the Claude model identifier used when
		// model.Request.Model is empty. Required. Use the typed model
		// constants from anthropic-sdk-go.
		DefaultModel string

		// MaxTokens sets the default completion cap when a request does not
		// specify MaxTokens. Required to be positive here or per request.
		MaxTokens int

		// Temperature is used when a request does not specify Temperature.
		Temperature float64
	}

	// Client implements model.Client on top of Anthropic Claude Messages.
	Client struct {
		msg          MessagesClient
		defaultModel string
		maxTok       int
		temp         float64
	}
)

// New builds an Anthropic-backed model client from the provided Messages
// client and options.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model identifier is required")
	}
	return &Client{
		msg:          msg,
		defaultModel: opts.DefaultModel,
		maxTok:       opts.MaxTokens,
		temp:         opts.Temperature,
	}, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP client.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, Options{DefaultModel: defaultModel, MaxTokens: 4096})
}

// Capabilities reports function calling support.
func (c *Client) Capabilities() model.Capabilities {
	return model.Capabilities{FunctionCalling: true}
}

// Complete issues a non-streaming Messages.New request and translates the
// response.
func (c *Client) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	params, err := c.prepareRequest(req)
	if err != nil {
		return nil, err
	}
	msg, err := c.msg.New(ctx, *params)
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("%w: %w", model.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return translateResponse(msg)
}

func (c *Client) prepareRequest(req *model.Request) (*sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("anthropic: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTok
	}
	if maxTokens <= 0 {
		return nil, errors.New("anthropic: max_tokens must be positive")
	}

	msgs, system, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
		Model:     sdk.Model(modelID),
	}
	if len(system) > 0 {
		params.System = system
	}
	if t := c.effectiveTemperature(req.Temperature); t > 0 {
		params.Temperature = sdk.Float(t)
	}
	tools, err := encodeTools(req.Tools)
	if err != nil {
		return nil, err
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if req.ToolChoice != nil {
		tc, err := encodeToolChoice(req.ToolChoice, req.Tools)
		if err != nil {
			return nil, err
		}
		params.ToolChoice = tc
	}
	return &params, nil
}

func (c *Client) effectiveTemperature(requested float32) float64 {
	if requested > 0 {
		return float64(requested)
	}
	return c.temp
}

func encodeMessages(msgs []*model.Message) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(msgs))
	system := make([]sdk.TextBlockParam, 0, 1)

	for _, m := range msgs {
		if m == nil || m.Content == "" {
			continue
		}
		switch m.Role {
		case model.ConversationRoleSystem:
			system = append(system, sdk.TextBlockParam{Text: m.Content})
		case model.ConversationRoleUser:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case model.ConversationRoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			return nil, nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeTools(defs []*model.ToolDefinition) ([]sdk.ToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	toolList := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		if def == nil || def.Name == "" {
			continue
		}
		if def.Description == "" {
			return nil, fmt.Errorf("anthropic: tool %q is missing description", def.Name)
		}
		schema, err := toolInputSchema(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("anthropic: tool %q schema: %w", def.Name, err)
		}
		u := sdk.ToolUnionParamOfTool(schema, def.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		toolList = append(toolList, u)
	}
	return toolList, nil
}

func toolInputSchema(schema any) (sdk.ToolInputSchemaParam, error) {
	if schema == nil {
		return sdk.ToolInputSchemaParam{}, nil
	}
	var raw json.RawMessage
	switch v := schema.(type) {
	case json.RawMessage:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return sdk.ToolInputSchemaParam{}, err
		}
		raw = data
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return sdk.ToolInputSchemaParam{}, err
	}
	return sdk.ToolInputSchemaParam{ExtraFields: m}, nil
}

func encodeToolChoice(choice *model.ToolChoice, defs []*model.ToolDefinition) (sdk.ToolChoiceUnionParam, error) {
	switch choice.Mode {
	case "", model.ToolChoiceModeAuto:
		return sdk.ToolChoiceUnionParam{}, nil
	case model.ToolChoiceModeNone:
		none := sdk.NewToolChoiceNoneParam()
		return sdk.ToolChoiceUnionParam{OfNone: &none}, nil
	case model.ToolChoiceModeTool:
		if choice.Name == "" {
			return sdk.ToolChoiceUnionParam{}, fmt.Errorf("anthropic: tool choice mode %q requires a tool name", choice.Mode)
		}
		if !hasToolDefinition(defs, choice.Name) {
			return sdk.ToolChoiceUnionParam{}, fmt.Errorf("anthropic: tool choice name %q does not match any tool", choice.Name)
		}
		return sdk.ToolChoiceParamOfTool(choice.Name), nil
	default:
		return sdk.ToolChoiceUnionParam{}, fmt.Errorf("anthropic: unsupported tool choice mode %q", choice.Mode)
	}
}

func hasToolDefinition(defs []*model.ToolDefinition, name string) bool {
	for _, def := range defs {
		if def != nil && def.Name == name {
			return true
		}
	}
	return false
}

func isRateLimited(err error) bool {
	return err != nil && errors.Is(err, model.ErrRateLimited)
}

func translateResponse(msg *sdk.Message) (*model.Response, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	resp := &model.Response{}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			resp.Content = append(resp.Content, model.Message{
				Role:    model.ConversationRoleAssistant,
				Content: block.Text,
			})
		case "tool_use":
			var payload any
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &payload); err != nil {
					return nil, fmt.Errorf("anthropic: decode tool input: %w", err)
				}
			}
			resp.ToolCalls = append(resp.ToolCalls, model.ToolCall{
				ID:      block.ID,
				Name:    block.Name,
				Payload: payload,
			})
		}
	}
	if u := msg.Usage; u.InputTokens != 0 || u.OutputTokens != 0 {
		resp.Usage = model.TokenUsage{
			InputTokens:  int(u.InputTokens),
			OutputTokens: int(u.OutputTokens),
			TotalTokens:  int(u.InputTokens + u.OutputTokens),
		}
	}
	resp.StopReason = string(msg.StopReason)
	return resp, nil
}
