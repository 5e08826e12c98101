package condenser

import (
	"context"
	"sync"

	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/model"
)

// fakeClient scripts model responses for condenser tests.
type fakeClient struct {
	mu    sync.Mutex
	reqs  []*model.Request
	resps []*model.Response
	err   error
	caps  model.Capabilities
}

func (c *fakeClient) Complete(_ context.Context, req *model.Request) (*model.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.resps) == 0 {
		return &model.Response{Content: []model.Message{{Role: model.ConversationRoleAssistant, Content: "summary"}}}, nil
	}
	resp := c.resps[0]
	if len(c.resps) > 1 {
		c.resps = c.resps[1:]
	}
	return resp, nil
}

func (c *fakeClient) Capabilities() model.Capabilities { return c.caps }

func (c *fakeClient) requests() []*model.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.Request(nil), c.reqs...)
}

func textResponse(text string) *model.Response {
	return &model.Response{Content: []model.Message{{Role: model.ConversationRoleAssistant, Content: text}}}
}

func toolResponse(name string, payload any) *model.Response {
	return &model.Response{ToolCalls: []model.ToolCall{{ID: "call-1", Name: name, Payload: payload}}}
}

// messageLog builds a log of n user messages with ids 1..n.
func messageLog(n int) []*event.Event {
	events := make([]*event.Event, n)
	for i := range events {
		e := event.New(event.SourceUser, event.MessageAction{Content: "msg"})
		e.ID = int64(i + 1)
		events[i] = e
	}
	return events
}

// appendEvent adds a payload to the log with the next id.
func appendEvent(events []*event.Event, source event.Source, p event.Payload) []*event.Event {
	var last int64
	for _, e := range events {
		if e.ID > last {
			last = e.ID
		}
	}
	e := event.New(source, p)
	e.ID = last + 1
	return append(events, e)
}
