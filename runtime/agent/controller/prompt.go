package controller

import (
	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/model"
)

// PromptBuilder renders a condensed view into the ordered conversation sent
// to the model. Agent events become assistant turns; user messages and
// environment observations become user turns; the system message keeps the
// system role.
type PromptBuilder struct{}

// Messages renders the view.
func (PromptBuilder) Messages(view *event.View) []*model.Message {
	msgs := make([]*model.Message, 0, view.Len())
	for _, e := range view.Events {
		text := event.Text(e.Payload)
		if text == "" {
			continue
		}
		role := model.ConversationRoleUser
		switch {
		case e.Payload.Kind() == event.KindSystemMessageAction:
			role = model.ConversationRoleSystem
		case e.Source == event.SourceAgent:
			role = model.ConversationRoleAssistant
		}
		msgs = append(msgs, &model.Message{Role: role, Content: text})
	}
	return msgs
}
