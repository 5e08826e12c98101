// Package model provides interfaces for LLM clients used by the controller
// and the LLM-backed condensers. It defines a provider-agnostic abstraction
// over chat completion APIs (OpenAI, Anthropic, etc.) so callers can invoke
// models without coupling to specific SDKs. Implementations translate these
// normalized types into provider-specific formats.
package model

import (
	"context"
	"errors"
)

type (
	// Client defines the contract used to invoke LLM calls. Implementations
	// wrap provider SDKs and translate Request/Response to provider-specific
	// formats. Clients must be safe for concurrent reuse across sessions and
	// hold no session-mutable state: condensers receive a reference to a
	// shared client, never ownership of it.
	Client interface {
		// Complete sends a chat completion request to the model provider and
		// returns the generated response. Returns an error if the model is
		// unavailable, quota is exceeded, or the request is malformed.
		// Callers do not retry here; errors propagate to the controller's
		// generic failure handling.
		Complete(ctx context.Context, req *Request) (*Response, error)
	}

	// CapabilityReporter is an optional Client extension that reports what
	// the underlying provider supports. Condensers that require forced tool
	// calls check it at construction and fail fast when unsupported.
	CapabilityReporter interface {
		Capabilities() Capabilities
	}

	// Capabilities describes optional provider features.
	Capabilities struct {
		// FunctionCalling reports whether the provider supports tool
		// definitions and forced tool choice.
		FunctionCalling bool
	}

	// ConversationRole identifies the speaker of a message.
	ConversationRole string

	// Request captures the normalized parameters for a model invocation.
	Request struct {
		// Model identifies the target model using the provider-specific
		// identifier. Empty selects the client's configured default.
		Model string

		// Messages is the ordered chat history provided to the model,
		// including system prompts, user inputs, and prior assistant
		// responses.
		Messages []*Message

		// Temperature controls sampling temperature. Zero means use the
		// provider or client default.
		Temperature float32

		// Tools describes the tool schemas exposed to the model for function
		// calling. Empty if the model should not invoke tools.
		Tools []*ToolDefinition

		// ToolChoice constrains how the model may use the declared tools.
		// Nil means provider default (auto).
		ToolChoice *ToolChoice

		// MaxTokens caps the number of completion tokens. Zero means use the
		// client default.
		MaxTokens int
	}

	// Response wraps the generated content and any tool call requests.
	Response struct {
		// Content contains the assistant messages returned by the model.
		// Empty if the model only requested tool calls.
		Content []Message

		// ToolCalls lists tool invocations requested by the model. Empty if
		// the model produced a plain text response.
		ToolCalls []ToolCall

		// Usage reports token usage when the provider makes it available.
		Usage TokenUsage

		// StopReason explains why the model stopped generating. Values are
		// provider-specific and may be empty.
		StopReason string
	}

	// Message mirrors an LLM chat message with role and text content.
	Message struct {
		// Role is the message role.
		Role ConversationRole
		// Content is the message text.
		Content string
	}

	// ToolDefinition describes a tool schema passed to providers for
	// function calling.
	ToolDefinition struct {
		// Name is the identifier presented to the model.
		Name string
		// Description documents the tool for prompting purposes.
		Description string
		// InputSchema is the JSON Schema describing the tool's input,
		// typically a map[string]any with "type", "properties" and
		// "required" fields.
		InputSchema any
	}

	// ToolChoice constrains provider tool selection.
	ToolChoice struct {
		// Mode is one of the ToolChoiceMode constants.
		Mode ToolChoiceMode
		// Name is required when Mode is ToolChoiceModeTool.
		Name string
	}

	// ToolChoiceMode enumerates tool choice constraints.
	ToolChoiceMode string

	// ToolCall captures a tool invocation requested by the model.
	ToolCall struct {
		// ID is the provider-assigned call identifier, when available.
		ID string
		// Name identifies the requested tool.
		Name string
		// Payload carries the JSON arguments, typically a map[string]any
		// conforming to the tool's InputSchema.
		Payload any
	}

	// TokenUsage records prompt/completion token counts when reported.
	TokenUsage struct {
		// InputTokens counts tokens consumed by the prompt.
		InputTokens int
		// OutputTokens counts tokens produced by the completion.
		OutputTokens int
		// TotalTokens is the aggregate when the provider reports it.
		TotalTokens int
	}
)

// Conversation roles.
const (
	ConversationRoleSystem    ConversationRole = "system"
	ConversationRoleUser      ConversationRole = "user"
	ConversationRoleAssistant ConversationRole = "assistant"
)

// Tool choice modes.
const (
	// ToolChoiceModeAuto lets the model decide whether to call tools.
	ToolChoiceModeAuto ToolChoiceMode = "auto"
	// ToolChoiceModeNone disables tool use for the request.
	ToolChoiceModeNone ToolChoiceMode = "none"
	// ToolChoiceModeTool forces a call to the named tool.
	ToolChoiceModeTool ToolChoiceMode = "tool"
)

// ErrRateLimited marks provider rate limiting. Middlewares detect it with
// errors.Is to trigger backoff.
var ErrRateLimited = errors.New("model: rate limited")

// Text concatenates the text of all assistant messages in the response.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var out string
	for _, m := range r.Content {
		out += m.Content
	}
	return out
}
