package mongo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skeinworks/skein/runtime/agent/event"
)

func TestClientAppendPersistsDocument(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{}
	c := &client{coll: coll}

	e := &event.Event{
		ID:        7,
		Source:    event.SourceUser,
		Timestamp: time.Unix(1, 0).UTC(),
		Payload:   event.MessageAction{Content: "hello"},
	}
	err := c.Append(context.Background(), "session-1", e)
	require.NoError(t, err)

	require.Len(t, coll.inserted, 1)
	doc := coll.inserted[0]
	assert.Equal(t, "session-1", doc.SessionID)
	assert.Equal(t, int64(7), doc.EventID)
	assert.Equal(t, string(event.SourceUser), doc.Source)
	assert.Equal(t, string(event.KindMessageAction), doc.Kind)
	assert.Contains(t, string(doc.Payload), "hello")
}

func TestClientAppendValidation(t *testing.T) {
	t.Parallel()

	c := &client{coll: &fakeCollection{}}

	err := c.Append(context.Background(), "session-1", nil)
	require.Error(t, err)

	err = c.Append(context.Background(), "", &event.Event{ID: 1, Payload: event.MessageAction{Content: "x"}})
	require.Error(t, err)

	err = c.Append(context.Background(), "session-1", &event.Event{Payload: event.MessageAction{Content: "x"}})
	require.ErrorContains(t, err, "id must be positive")

	err = c.Append(context.Background(), "session-1", &event.Event{ID: 1})
	require.ErrorContains(t, err, "payload is required")
}

func TestClientListPagesByID(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{
		findDocs: fakeEventDocuments(t, "session-1", 5),
	}
	c := &client{coll: coll}

	events, err := c.List(context.Background(), "session-1", 0, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(1), events[0].ID)
	assert.Equal(t, int64(3), events[2].ID)

	rest, err := c.List(context.Background(), "session-1", events[2].ID, 0)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, int64(4), rest[0].ID)
	assert.Equal(t, int64(5), rest[1].ID)

	msg, ok := rest[0].Payload.(event.MessageAction)
	require.True(t, ok)
	assert.Equal(t, "message 4", msg.Content)
}

func TestClientListRequiresSession(t *testing.T) {
	t.Parallel()

	c := &client{coll: &fakeCollection{}}
	_, err := c.List(context.Background(), "", 0, 0)
	require.Error(t, err)
}

func fakeEventDocuments(t *testing.T, sessionID string, n int) []eventDocument {
	t.Helper()

	docs := make([]eventDocument, 0, n)
	for i := 1; i <= n; i++ {
		payload, err := json.Marshal(event.MessageAction{Content: "message " + string(rune('0'+i))})
		require.NoError(t, err)
		docs = append(docs, eventDocument{
			SessionID: sessionID,
			EventID:   int64(i),
			Source:    string(event.SourceUser),
			Kind:      string(event.KindMessageAction),
			Payload:   payload,
			Timestamp: time.Unix(int64(i), 0).UTC(),
		})
	}
	return docs
}

type fakeCollection struct {
	inserted []eventDocument
	findDocs []eventDocument
}

func (c *fakeCollection) InsertOne(_ context.Context, document any, _ ...*options.InsertOneOptions) (*mongodriver.InsertOneResult, error) {
	if doc, ok := document.(eventDocument); ok {
		c.inserted = append(c.inserted, doc)
	}
	return &mongodriver.InsertOneResult{InsertedID: int64(len(c.inserted))}, nil
}

func (c *fakeCollection) Find(_ context.Context, filter any, opts ...*options.FindOptions) (cursor, error) {
	f, ok := filter.(bson.M)
	if !ok {
		return &fakeCursor{}, nil
	}

	sessionID, _ := f["session_id"].(string)
	var after int64
	if id, ok := f["event_id"].(bson.M); ok {
		if gt, ok := id["$gt"].(int64); ok {
			after = gt
		}
	}

	filtered := make([]eventDocument, 0, len(c.findDocs))
	for _, doc := range c.findDocs {
		if doc.SessionID != sessionID || doc.EventID <= after {
			continue
		}
		filtered = append(filtered, doc)
	}

	var limit int64
	if len(opts) > 0 && opts[0] != nil && opts[0].Limit != nil {
		limit = *opts[0].Limit
	}
	if limit > 0 && int64(len(filtered)) > limit {
		filtered = filtered[:limit]
	}

	return &fakeCursor{docs: filtered}, nil
}

func (c *fakeCollection) Indexes() indexView {
	return fakeIndexView{}
}

type fakeIndexView struct{}

func (fakeIndexView) CreateOne(context.Context, mongodriver.IndexModel, ...*options.CreateIndexesOptions) (string, error) {
	return "", nil
}

type fakeCursor struct {
	docs []eventDocument
	pos  int
	err  error
}

func (c *fakeCursor) Next(context.Context) bool {
	if c.err != nil || c.pos >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Decode(val any) error {
	if c.err != nil {
		return c.err
	}
	if c.pos == 0 || c.pos > len(c.docs) {
		return nil
	}
	p, ok := val.(*eventDocument)
	if !ok {
		return nil
	}
	*p = c.docs[c.pos-1]
	return nil
}

func (c *fakeCursor) Err() error {
	return c.err
}

func (c *fakeCursor) Close(context.Context) error {
	return nil
}
