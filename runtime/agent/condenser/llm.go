package condenser

import (
	"context"
	"fmt"
	"strings"

	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/model"
)

// defaultMaxEventLength bounds the rendered length of a single forgotten
// event inside a summarization prompt.
const defaultMaxEventLength = 10_000

// transcript renders forgotten events as a numbered plain-text block for
// summarization prompts, truncating each event to maxEventLength runes.
func transcript(events []*event.Event, maxEventLength int) string {
	if maxEventLength <= 0 {
		maxEventLength = defaultMaxEventLength
	}
	var b strings.Builder
	for _, e := range events {
		text := truncate(event.Text(e.Payload), maxEventLength)
		fmt.Fprintf(&b, "<event id=%d source=%s kind=%s>\n%s\n</event>\n", e.ID, e.Source, e.Payload.Kind(), text)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "... [truncated]"
}

// viewMessages renders a view as conversation messages so a token estimator
// can measure what the model would actually be prompted with. Agent actions
// become assistant turns, everything else user turns, and the leading system
// message keeps its role.
func viewMessages(view *event.View) []*model.Message {
	msgs := make([]*model.Message, 0, len(view.Events))
	for _, e := range view.Events {
		role := model.ConversationRoleUser
		switch {
		case e.Payload.Kind() == event.KindSystemMessageAction:
			role = model.ConversationRoleSystem
		case e.Source == event.SourceAgent:
			role = model.ConversationRoleAssistant
		}
		msgs = append(msgs, &model.Message{Role: role, Content: event.Text(e.Payload)})
	}
	return msgs
}

// completeText runs a plain completion request and returns the concatenated
// text content, failing on an empty response.
func completeText(ctx context.Context, client model.Client, req *model.Request) (string, *model.Response, error) {
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("condensation completion failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" && len(resp.ToolCalls) == 0 {
		return "", resp, fmt.Errorf("condensation completion returned no content")
	}
	return text, resp, nil
}
