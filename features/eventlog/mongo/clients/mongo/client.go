// Package mongo implements the low-level MongoDB client used by the event
// log store.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"goa.design/clue/health"

	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// Client exposes Mongo-backed operations for the session event log.
	Client interface {
		health.Pinger

		Append(ctx context.Context, sessionID string, e *event.Event) error
		List(ctx context.Context, sessionID string, afterID int64, limit int) ([]*event.Event, error)
	}

	// Options configures the Mongo client implementation.
	Options struct {
		Client     *mongodriver.Client
		Database   string
		Collection string
		Timeout    time.Duration
	}

	client struct {
		mongo   *mongodriver.Client
		coll    collection
		timeout time.Duration
	}

	// eventDocument is the persisted form of an event. The payload is the
	// event's JSON encoding for its kind; session_id and id are lifted out
	// for indexing.
	eventDocument struct {
		SessionID string    `bson:"session_id"`
		EventID   int64     `bson:"event_id"`
		Source    string    `bson:"source"`
		Kind      string    `bson:"kind"`
		Payload   []byte    `bson:"payload"`
		Timestamp time.Time `bson:"timestamp"`
	}
)

const (
	defaultCollection = "agent_session_events"
	defaultTimeout    = 5 * time.Second
	clientName        = "eventlog-mongo"
)

// New returns a Client backed by the provided MongoDB client.
func New(opts Options) (Client, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	coll := opts.Collection
	if coll == "" {
		coll = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	mcoll := opts.Client.Database(opts.Database).Collection(coll)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	wrapper := mongoCollection{coll: mcoll}
	if err := ensureIndexes(ctx, wrapper); err != nil {
		return nil, err
	}
	return newClientWithCollection(opts.Client, wrapper, timeout)
}

func (c *client) Name() string {
	return clientName
}

func (c *client) Ping(ctx context.Context) error {
	return c.mongo.Ping(ctx, readpref.Primary())
}

func (c *client) Append(ctx context.Context, sessionID string, e *event.Event) error {
	if e == nil {
		return errors.New("event is required")
	}
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if e.ID <= 0 {
		return errors.New("event id must be positive")
	}
	if e.Payload == nil {
		return errors.New("event payload is required")
	}

	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode event %d payload: %w", e.ID, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	doc := eventDocument{
		SessionID: sessionID,
		EventID:   e.ID,
		Source:    string(e.Source),
		Kind:      string(e.Payload.Kind()),
		Payload:   payload,
		Timestamp: e.Timestamp.UTC(),
	}
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	return nil
}

func (c *client) List(ctx context.Context, sessionID string, afterID int64, limit int) (events []*event.Event, err error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	filter := bson.M{"session_id": sessionID}
	if afterID > 0 {
		filter["event_id"] = bson.M{"$gt": afterID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "event_id", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := cur.Close(ctx); err == nil && cerr != nil {
			err = cerr
		}
	}()

	for cur.Next(ctx) {
		var doc eventDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		payload, err := event.ParsePayload(event.Kind(doc.Kind), doc.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", doc.EventID, err)
		}
		events = append(events, &event.Event{
			ID:        doc.EventID,
			Source:    event.Source(doc.Source),
			Timestamp: doc.Timestamp,
			Payload:   payload,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ensureIndexes creates the unique (session_id, event_id) index that backs
// ordered listing and duplicate id rejection.
func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongodriver.IndexModel{
		Keys: bson.D{
			{Key: "session_id", Value: 1},
			{Key: "event_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

func newClientWithCollection(mongoClient *mongodriver.Client, coll collection, timeout time.Duration) (*client, error) {
	if coll == nil {
		return nil, errors.New("collection is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		mongo:   mongoClient,
		coll:    coll,
		timeout: timeout,
	}, nil
}

type collection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongodriver.InsertOneResult, error)
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...*options.CreateIndexesOptions) (string, error)
}

type cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongodriver.InsertOneResult, error) {
	return c.coll.InsertOne(ctx, document, opts...)
}

func (c mongoCollection) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return mongoCursor{cur: cur}, nil
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoCursor struct {
	cur *mongodriver.Cursor
}

func (c mongoCursor) Next(ctx context.Context) bool {
	return c.cur.Next(ctx)
}

func (c mongoCursor) Decode(val any) error {
	return c.cur.Decode(val)
}

func (c mongoCursor) Err() error {
	return c.cur.Err()
}

func (c mongoCursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...*options.CreateIndexesOptions) (string, error) {
	return v.view.CreateOne(ctx, model, opts...)
}
