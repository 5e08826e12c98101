package controller

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// ActionParser turns a model's text response into exactly one action.
	// Parsers are per-agent; the controller only needs the contract.
	ActionParser interface {
		Parse(text string) (event.ActionPayload, error)
	}

	// JSONActionParser parses responses carrying a single JSON action object
	// of the form {"action": "<kind>", "args": {...}}, optionally wrapped in
	// a fenced code block or surrounding prose.
	JSONActionParser struct{}
)

type actionEnvelope struct {
	Action string          `json:"action"`
	Args   json.RawMessage `json:"args"`
}

// Parse extracts and decodes the action object. It fails when no JSON object
// is present, the kind is unknown, or the payload is not an action.
func (JSONActionParser) Parse(text string) (event.ActionPayload, error) {
	raw, ok := extractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("response contains no action object")
	}
	var env actionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode action object: %w", err)
	}
	if env.Action == "" {
		return nil, fmt.Errorf("action object is missing the action field")
	}
	payload, err := event.ParsePayload(event.Kind(env.Action), env.Args)
	if err != nil {
		return nil, err
	}
	action, ok := payload.(event.ActionPayload)
	if !ok {
		return nil, fmt.Errorf("%s is not an action", env.Action)
	}
	if _, ok := action.(event.CondensationAction); ok {
		return nil, fmt.Errorf("condensation is not a model-issued action")
	}
	return action, nil
}

// extractJSONObject returns the first balanced top-level JSON object in the
// text, skipping over string literals.
func extractJSONObject(text string) (json.RawMessage, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return json.RawMessage(text[start : i+1]), true
			}
		}
	}
	return nil, false
}
