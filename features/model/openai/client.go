// Package openai provides a model.Client implementation backed by the OpenAI
// Chat Completions API. It translates normalized requests into ChatCompletion
// calls using github.com/sashabaranov/go-openai and maps responses back to
// the generic structures.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/skeinworks/skein/runtime/agent/model"
)

// ChatClient captures the subset of the go-openai client used by the adapter.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (
		openai.ChatCompletionResponse, error)
}

// Options configures the OpenAI adapter.
type Options struct {
	Client       ChatClient
	DefaultModel string
}

// Client implements model.Client via the OpenAI Chat Completions API.
type Client struct {
	chat  ChatClient
	model string
}

// New builds an OpenAI-backed model client from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openai client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model is required")
	}
	return &Client{chat: opts.Client, model: opts.DefaultModel}, nil
}

// NewFromAPIKey constructs a client using the default go-openai HTTP client.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	return New(Options{Client: openai.NewClient(apiKey), DefaultModel: defaultModel})
}

// Capabilities reports function calling support.
func (c *Client) Capabilities() model.Capabilities {
	return model.Capabilities{FunctionCalling: true}
}

// Complete renders a chat completion using the configured OpenAI client.
func (c *Client) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("openai: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m == nil || m.Content == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	tools, err := encodeTools(req.Tools)
	if err != nil {
		return nil, err
	}
	request := openai.ChatCompletionRequest{
		Model:       modelID,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Tools:       tools,
	}
	if req.ToolChoice != nil {
		switch tc := req.ToolChoice; tc.Mode {
		case "", model.ToolChoiceModeAuto:
			// Provider default; omit ToolChoice.
		case model.ToolChoiceModeNone:
			request.ToolChoice = "none"
		case model.ToolChoiceModeTool:
			if tc.Name == "" {
				return nil, fmt.Errorf("openai: tool choice mode %q requires a tool name", tc.Mode)
			}
			if !hasToolDefinition(req.Tools, tc.Name) {
				return nil, fmt.Errorf("openai: tool choice name %q does not match any tool", tc.Name)
			}
			request.ToolChoice = openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: tc.Name},
			}
		default:
			return nil, fmt.Errorf("openai: unsupported tool choice mode %q", tc.Mode)
		}
	}
	response, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("%w: %w", model.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	return translateResponse(response), nil
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
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return true
	}
	return errors.Is(err, model.ErrRateLimited)
}

func encodeTools(defs []*model.ToolDefinition) ([]openai.Tool, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		if def == nil {
			continue
		}
		params, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal tool %s schema: %w", def.Name, err)
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}
	return tools, nil
}

func translateResponse(resp openai.ChatCompletionResponse) *model.Response {
	messages := make([]model.Message, 0, len(resp.Choices))
	toolCalls := make([]model.ToolCall, 0)
	for _, choice := range resp.Choices {
		msg := choice.Message
		if msg.Content != "" {
			messages = append(messages, model.Message{
				Role:    model.ConversationRole(msg.Role),
				Content: msg.Content,
			})
		}
		for _, call := range msg.ToolCalls {
			toolCalls = append(toolCalls, model.ToolCall{
				ID:      call.ID,
				Name:    call.Function.Name,
				Payload: parseToolArguments(call.Function.Arguments),
			})
		}
	}
	stop := ""
	if len(resp.Choices) > 0 {
		stop = string(resp.Choices[0].FinishReason)
	}
	return &model.Response{
		Content:   messages,
		ToolCalls: toolCalls,
		Usage: model.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		StopReason: stop,
	}
}

func parseToolArguments(raw string) any {
	if raw == "" {
		return nil
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return map[string]any{"raw": raw}
	}
	return payload
}
