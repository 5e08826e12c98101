// Command skein runs an autonomous coding agent session against a local
// workspace. It wires a condensation strategy from a YAML config, a model
// provider selected by flag, optional MongoDB event persistence, and optional
// Pulse event streaming.
//
// Usage:
//
//	skein -task "fix the failing test" \
//	    -provider anthropic -model claude-sonnet-4-0 \
//	    -condenser condenser.yaml -workspace .
//
// Provider credentials come from ANTHROPIC_API_KEY or OPENAI_API_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"goa.design/clue/log"

	eventlogmongo "github.com/skeinworks/skein/features/eventlog/mongo"
	clientsmongo "github.com/skeinworks/skein/features/eventlog/mongo/clients/mongo"
	"github.com/skeinworks/skein/features/model/anthropic"
	"github.com/skeinworks/skein/features/model/middleware"
	"github.com/skeinworks/skein/features/model/openai"
	streampulse "github.com/skeinworks/skein/features/stream/pulse"
	clientspulse "github.com/skeinworks/skein/features/stream/pulse/clients/pulse"
	"github.com/skeinworks/skein/runtime/agent/condenser"
	"github.com/skeinworks/skein/runtime/agent/controller"
	"github.com/skeinworks/skein/runtime/agent/event"
	"github.com/skeinworks/skein/runtime/agent/eventlog"
	"github.com/skeinworks/skein/runtime/agent/executor/local"
	"github.com/skeinworks/skein/runtime/agent/model"
	"github.com/skeinworks/skein/runtime/agent/telemetry"
)

const defaultSystemPrompt = `You are an autonomous software engineering agent working in a local workspace.
Respond to every prompt with exactly one action object:
{"action": "<kind>", "args": {...}}
Available kinds: message, think, run_command, read_file, write_file, edit_file, browse_url, finish.
Use finish when the task is complete.`

func main() {
	var (
		taskF      = flag.String("task", "", "Task given to the agent (required)")
		providerF  = flag.String("provider", "anthropic", "Model provider (anthropic or openai)")
		modelF     = flag.String("model", "", "Model identifier (provider default when empty)")
		condenserF = flag.String("condenser", "", "Path to the condenser YAML config")
		workspaceF = flag.String("workspace", ".", "Workspace directory the agent operates in")
		systemF    = flag.String("system", "", "System prompt override")
		maxStepsF  = flag.Int("max-steps", 50, "Step budget for the session")
		tpmF       = flag.Float64("tpm", 0, "Tokens-per-minute budget (0 disables rate limiting)")
		mongoURIF  = flag.String("mongo-uri", "", "MongoDB URI for event persistence (optional)")
		mongoDBF   = flag.String("mongo-db", "skein", "MongoDB database name")
		redisF     = flag.String("redis-addr", "", "Redis address for Pulse event streaming (optional)")
		dbgF       = flag.Bool("debug", false, "Enable debug logs")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	if *taskF == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: -task")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, runOptions{
		task:      *taskF,
		provider:  *providerF,
		model:     *modelF,
		condenser: *condenserF,
		workspace: *workspaceF,
		system:    *systemF,
		maxSteps:  *maxStepsF,
		tpm:       *tpmF,
		mongoURI:  *mongoURIF,
		mongoDB:   *mongoDBF,
		redisAddr: *redisF,
	}); err != nil {
		log.Fatal(ctx, err)
	}
}

type runOptions struct {
	task      string
	provider  string
	model     string
	condenser string
	workspace string
	system    string
	maxSteps  int
	tpm       float64
	mongoURI  string
	mongoDB   string
	redisAddr string
}

func run(ctx context.Context, opts runOptions) error {
	client, err := buildClient(ctx, opts)
	if err != nil {
		return err
	}

	cond, err := buildCondenser(opts.condenser, client)
	if err != nil {
		return err
	}

	exec, err := local.New(local.Options{Root: opts.workspace})
	if err != nil {
		return fmt.Errorf("workspace executor: %w", err)
	}

	logOpts, cleanup, err := buildLogOptions(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup(ctx)

	system := opts.system
	if system == "" {
		system = defaultSystemPrompt
	}

	sessionID := uuid.NewString()
	recorder := &condenser.Recorder{}
	ctrl, err := controller.New(ctx, controller.Options{
		SessionID:    sessionID,
		Log:          eventlog.New(sessionID, logOpts...),
		Condenser:    cond,
		Client:       client,
		Executor:     exec,
		SystemPrompt: system,
		MaxSteps:     opts.maxSteps,
		Recorder:     recorder,
		Logger:       telemetry.NewClueLogger(),
		Metrics:      telemetry.NewOTELMetrics(),
		Tracer:       telemetry.NewOTELTracer(),
	})
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}
	log.Print(ctx, log.KV{K: "session", V: ctrl.SessionID()},
		log.KV{K: "provider", V: opts.provider},
		log.KV{K: "workspace", V: opts.workspace})

	if err := ctrl.SendMessage(ctx, opts.task); err != nil {
		return fmt.Errorf("send task: %w", err)
	}

	state, err := ctrl.Run(ctx)
	if err != nil {
		return fmt.Errorf("session ended in state %s: %w", state, err)
	}

	printOutcome(ctx, ctrl)
	return nil
}

// buildClient selects the provider, reads its API key from the environment,
// and wraps the client with the adaptive rate limiter when a budget is set.
func buildClient(ctx context.Context, opts runOptions) (model.Client, error) {
	var (
		client model.Client
		err    error
	)
	switch opts.provider {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		modelID := opts.model
		if modelID == "" {
			modelID = "claude-sonnet-4-0"
		}
		client, err = anthropic.NewFromAPIKey(key, modelID)
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		modelID := opts.model
		if modelID == "" {
			modelID = "gpt-4o"
		}
		client, err = openai.NewFromAPIKey(key, modelID)
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.provider)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s client: %w", opts.provider, err)
	}
	if opts.tpm > 0 {
		limiter := middleware.NewAdaptiveRateLimiter(ctx, nil, "", opts.tpm, opts.tpm*2)
		client = limiter.Middleware()(client)
	}
	return client, nil
}

// buildCondenser loads the YAML strategy config, defaulting to a 120-event
// rolling window when no config is given.
func buildCondenser(path string, client model.Client) (condenser.Condenser, error) {
	deps := condenser.Deps{
		Client:    client,
		Estimator: model.HeuristicEstimator{},
	}
	if path == "" {
		return condenser.DefaultRegistry().Build(condenser.Config{
			Kind:      condenser.KindRecentEvents,
			MaxEvents: 120,
		}, deps)
	}
	cfg, err := condenser.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	cond, err := condenser.DefaultRegistry().Build(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("build condenser from %s: %w", path, err)
	}
	return cond, nil
}

// buildLogOptions wires optional Mongo persistence and Pulse streaming into
// the event log. The returned cleanup releases the underlying connections.
func buildLogOptions(ctx context.Context, opts runOptions) ([]eventlog.Option, func(context.Context), error) {
	var (
		logOpts  []eventlog.Option
		cleanups []func(context.Context)
	)
	cleanup := func(ctx context.Context) {
		for _, fn := range cleanups {
			fn(ctx)
		}
	}

	if opts.mongoURI != "" {
		mc, err := mongodriver.Connect(ctx, mongooptions.Client().ApplyURI(opts.mongoURI))
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect mongo: %w", err)
		}
		cleanups = append(cleanups, func(ctx context.Context) {
			if err := mc.Disconnect(ctx); err != nil {
				log.Errorf(ctx, err, "disconnect mongo")
			}
		})
		cli, err := clientsmongo.New(clientsmongo.Options{Client: mc, Database: opts.mongoDB})
		if err != nil {
			return nil, cleanup, fmt.Errorf("mongo event log client: %w", err)
		}
		store, err := eventlogmongo.NewStore(cli)
		if err != nil {
			return nil, cleanup, fmt.Errorf("mongo event log store: %w", err)
		}
		logOpts = append(logOpts, eventlog.WithStore(store))
	}

	if opts.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		cleanups = append(cleanups, func(context.Context) {
			if err := rdb.Close(); err != nil {
				log.Errorf(ctx, err, "close redis")
			}
		})
		pc, err := clientspulse.New(clientspulse.Options{Redis: rdb})
		if err != nil {
			return nil, cleanup, fmt.Errorf("pulse client: %w", err)
		}
		sink, err := streampulse.NewSink(streampulse.Options{Client: pc})
		if err != nil {
			return nil, cleanup, fmt.Errorf("pulse sink: %w", err)
		}
		logOpts = append(logOpts, eventlog.WithSink(sink))
	}

	return logOpts, cleanup, nil
}

// printOutcome logs the finish action's outputs, if the session produced one.
func printOutcome(ctx context.Context, ctrl *controller.Controller) {
	events := ctrl.Log().Events()
	for i := len(events) - 1; i >= 0; i-- {
		if fin, ok := events[i].Payload.(event.FinishAction); ok {
			log.Print(ctx, log.KV{K: "outcome", V: event.Text(fin)})
			return
		}
	}
	log.Print(ctx, log.KV{K: "outcome", V: "session ended without a finish action"})
}
