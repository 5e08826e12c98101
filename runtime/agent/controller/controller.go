// Package controller drives an agent session: it owns the event log, obtains
// condensed views, prompts the model, parses one action per step, hands
// runnable actions to the executor, and appends the resulting events. One
// controller per session; exactly one action is in flight at a time.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skeinworks/skein/runtime/agent/condenser"
	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/eventlog"
	"github.com/skeinworks/skein/runtime/agent/executor"
	"github.com/skeinworks/skein/runtime/agent/model"
	"github.com/skeinworks/skein/runtime/agent/telemetry"
)

// State is the controller's lifecycle position.
type State string

// Controller states. FINISHED and ERROR are terminal.
const (
	StateAwaitingAction State = "awaiting_action"
	StateExecuting      State = "executing"
	StateFinished       State = "finished"
	StateError          State = "error"
)

// ErrStuck reports that the session was aborted by the stuck detector.
var ErrStuck = errors.New("session is stuck in a repetition loop")

// ErrMaxSteps reports that Run exhausted its step budget.
var ErrMaxSteps = errors.New("session exceeded the step budget")

type (
	// Options configures New. Client, Executor, and Condenser are required;
	// everything else has a usable default.
	Options struct {
		// SessionID identifies the session. Defaults to a new UUID.
		SessionID string
		// Log is the session event log. Defaults to a fresh in-memory log
		// for the session id.
		Log *eventlog.Log
		// Condenser bounds the history. Required.
		Condenser condenser.Condenser
		// Client is the model client for agent turns. Required.
		Client model.Client
		// Executor runs the agent's actions. Required.
		Executor executor.Executor
		// Parser turns model text into actions. Defaults to
		// JSONActionParser.
		Parser ActionParser
		// SystemPrompt seeds the log with a system message event when the
		// log is empty.
		SystemPrompt string
		// MaxParseRetries bounds corrective re-prompts after an unparsable
		// response before degrading to a think action. Defaults to 2.
		MaxParseRetries int
		// MaxSteps bounds Run. Defaults to 100.
		MaxSteps int
		// StuckDetector aborts looping sessions. Zero value uses the default
		// window.
		StuckDetector StuckDetector
		// Recorder collects condensation metadata. Optional.
		Recorder *condenser.Recorder
		// Logger, Metrics and Tracer default to no-ops.
		Logger  telemetry.Logger
		Metrics telemetry.Metrics
		Tracer  telemetry.Tracer
	}

	// Controller is the session state machine.
	Controller struct {
		sessionID string
		log       *eventlog.Log
		condenser condenser.Condenser
		client    model.Client
		executor  executor.Executor
		parser    ActionParser
		prompts   PromptBuilder

		maxParseRetries int
		maxSteps        int
		stuck           StuckDetector
		recorder        *condenser.Recorder

		logger  telemetry.Logger
		metrics telemetry.Metrics
		tracer  telemetry.Tracer

		state State
	}
)

// correctivePrompt re-prompts a model whose response contained no action.
const correctivePrompt = "Your previous response did not contain a valid action. " +
	"Respond with exactly one action object: {\"action\": \"<kind>\", \"args\": {...}}."

// New validates the options and constructs a controller in the
// awaiting-action state.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Condenser == nil {
		return nil, errors.New("condenser is required")
	}
	if opts.Client == nil {
		return nil, errors.New("model client is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Log == nil {
		opts.Log = eventlog.New(opts.SessionID)
	}
	if opts.Parser == nil {
		opts.Parser = JSONActionParser{}
	}
	if opts.MaxParseRetries == 0 {
		opts.MaxParseRetries = 2
	}
	if opts.MaxSteps == 0 {
		opts.MaxSteps = 100
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.NoopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NoopMetrics{}
	}
	if opts.Tracer == nil {
		opts.Tracer = telemetry.NoopTracer{}
	}

	c := &Controller{
		sessionID:       opts.SessionID,
		log:             opts.Log,
		condenser:       opts.Condenser,
		client:          opts.Client,
		executor:        opts.Executor,
		parser:          opts.Parser,
		maxParseRetries: opts.MaxParseRetries,
		maxSteps:        opts.MaxSteps,
		stuck:           opts.StuckDetector,
		recorder:        opts.Recorder,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		tracer:          opts.Tracer,
		state:           StateAwaitingAction,
	}

	if opts.SystemPrompt != "" && c.log.Len() == 0 {
		e := event.New(event.SourceAgent, event.SystemMessageAction{Content: opts.SystemPrompt})
		if _, err := c.log.Append(ctx, e); err != nil {
			return nil, fmt.Errorf("seed system message: %w", err)
		}
	}
	return c, nil
}

// SessionID returns the session identifier.
func (c *Controller) SessionID() string { return c.sessionID }

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Log exposes the session log for inspection and replay.
func (c *Controller) Log() *eventlog.Log { return c.log }

// SendMessage appends a user message to the session. It may be called
// between steps of a multi-turn session.
func (c *Controller) SendMessage(ctx context.Context, content string) error {
	if c.state == StateFinished || c.state == StateError {
		return fmt.Errorf("session is %s", c.state)
	}
	_, err := c.log.Append(ctx, event.New(event.SourceUser, event.MessageAction{Content: content}))
	return err
}

// Step advances the session by one unit of work: either a condensation is
// appended (no model turn), or the model is prompted, one action parsed,
// executed, and the action/observation pair appended. Terminal states and
// the stuck detector stop the loop.
func (c *Controller) Step(ctx context.Context) error {
	if c.state == StateFinished || c.state == StateError {
		return fmt.Errorf("session is %s", c.state)
	}

	ctx, span := c.tracer.Start(ctx, "agent.step")
	defer span.End()
	c.metrics.IncCounter("agent.steps", 1, "session", c.sessionID)

	events := c.log.Events()
	if c.stuck.IsStuck(events) {
		c.state = StateError
		c.logger.Error(ctx, "session stuck", "session", c.sessionID)
		span.RecordError(ErrStuck)
		return ErrStuck
	}

	res, err := condenser.CondensedHistory(ctx, c.condenser, c.recorder, events)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("condense history: %w", err)
	}
	if res.Condensation != nil {
		// The condensation consumes this step; no model turn.
		if _, err := c.log.Append(ctx, res.Condensation.Event()); err != nil {
			span.RecordError(err)
			return fmt.Errorf("append condensation: %w", err)
		}
		c.metrics.IncCounter("agent.condensations", 1, "session", c.sessionID)
		c.logger.Info(ctx, "condensation applied",
			"session", c.sessionID,
			"forgotten", len(res.Condensation.Action.ForgottenIDs()),
			"summarized", res.Condensation.Action.HasSummary())
		return nil
	}

	action, err := c.decide(ctx, res.View)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if _, err := c.log.Append(ctx, event.New(event.SourceAgent, action)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("append action: %w", err)
	}

	if _, ok := action.(event.FinishAction); ok {
		c.state = StateFinished
		c.logger.Info(ctx, "session finished", "session", c.sessionID)
		return nil
	}

	c.state = StateExecuting
	obs := c.execute(ctx, action)
	if _, err := c.log.Append(ctx, event.New(event.SourceEnvironment, obs)); err != nil {
		c.state = StateError
		span.RecordError(err)
		return fmt.Errorf("append observation: %w", err)
	}
	c.state = StateAwaitingAction
	return nil
}

// Run steps the session until it finishes, errors, or exhausts the step
// budget.
func (c *Controller) Run(ctx context.Context) (State, error) {
	for i := 0; i < c.maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return c.state, err
		}
		if err := c.Step(ctx); err != nil {
			return c.state, err
		}
		if c.state == StateFinished {
			return c.state, nil
		}
	}
	c.state = StateError
	return c.state, ErrMaxSteps
}

// decide prompts the model and parses exactly one action, re-prompting with
// a corrective message on parse failures and degrading to a think action
// carrying the last raw response once retries are exhausted.
func (c *Controller) decide(ctx context.Context, view *event.View) (event.ActionPayload, error) {
	msgs := c.prompts.Messages(view)
	var lastText string
	for attempt := 0; attempt <= c.maxParseRetries; attempt++ {
		start := time.Now()
		resp, err := c.client.Complete(ctx, &model.Request{Messages: msgs})
		c.metrics.RecordTimer("agent.model_latency", time.Since(start), "session", c.sessionID)
		if err != nil {
			return nil, fmt.Errorf("model completion: %w", err)
		}
		lastText = resp.Text()

		action, err := c.parser.Parse(lastText)
		if err == nil {
			return action, nil
		}
		c.metrics.IncCounter("agent.parse_retries", 1, "session", c.sessionID)
		c.logger.Warn(ctx, "unparsable model response",
			"session", c.sessionID, "attempt", attempt, "err", err)
		msgs = append(msgs,
			&model.Message{Role: model.ConversationRoleAssistant, Content: lastText},
			&model.Message{Role: model.ConversationRoleUser, Content: correctivePrompt},
		)
	}
	return event.ThinkAction{Thought: lastText}, nil
}

// execute runs the action, converting executor errors into error
// observations so the session keeps its own failure handling.
func (c *Controller) execute(ctx context.Context, action event.ActionPayload) event.ObservationPayload {
	ctx, span := c.tracer.Start(ctx, "agent.execute")
	defer span.End()

	obs, err := c.executor.RunAction(ctx, action)
	if err != nil {
		span.RecordError(err)
		c.logger.Error(ctx, "executor failure",
			"session", c.sessionID, "action", action.Kind(), "err", err)
		return event.ErrorObservation{Message: err.Error()}
	}
	if obs == nil {
		return event.NullObservation{}
	}
	return obs
}
