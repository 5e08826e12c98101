package condenser

import (
	"fmt"
	"sync"

	"github.com/skeinworks/skein/runtime/agent/model"
)

type (
	// Deps carries the shared services a factory may wire into a condenser.
	// The client and estimator are owned by the caller and shared across
	// sessions; condensers never construct their own.
	Deps struct {
		// Client is the shared model client for LLM-backed strategies.
		Client model.Client
		// Estimator measures prompt footprints for token-triggered
		// strategies.
		Estimator model.TokenEstimator
	}

	// Factory builds a condenser from its configuration.
	Factory func(cfg Config, deps Deps) (Condenser, error)

	// Registry maps configuration kinds to condenser factories. It is an
	// explicit object handed to whoever loads configuration; nothing
	// registers itself at package init, so tests and embedders control
	// exactly which strategies are available.
	Registry struct {
		mu        sync.RWMutex
		factories map[string]Factory
	}
)

// Strategy kinds understood by the default registry.
const (
	KindNoOp                = "noop"
	KindRecentEvents        = "recent_events"
	KindAmortizedForgetting = "amortized_forgetting"
	KindObservationMasking  = "observation_masking"
	KindBrowserOutput       = "browser_output"
	KindLLMSummarizing      = "llm_summarizing"
	KindLLMAttention        = "llm_attention"
	KindStructuredSummary   = "structured_summary"
	KindTokenAware          = "token_aware"
	KindTaskCompletion      = "task_completion"
	KindPipeline            = "pipeline"
)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given kind. Registering the same kind
// twice is a programming error and fails.
func (r *Registry) Register(kind string, f Factory) error {
	if kind == "" {
		return fmt.Errorf("condenser kind must not be empty")
	}
	if f == nil {
		return fmt.Errorf("condenser factory for %q must not be nil", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		return fmt.Errorf("condenser kind %q already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Build constructs the condenser described by the configuration, resolving
// nested pipeline stages recursively.
func (r *Registry) Build(cfg Config, deps Deps) (Condenser, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown condenser kind %q", cfg.Kind)
	}
	c, err := f(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("build %s condenser: %w", cfg.Kind, err)
	}
	return c, nil
}

// DefaultRegistry returns a registry with every built-in strategy
// registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for kind, f := range builtinFactories() {
		// Kinds are unique by construction of the map.
		_ = r.Register(kind, f)
	}
	_ = registerPipeline(r)
	return r
}

func builtinFactories() map[string]Factory {
	factories := map[string]Factory{
		KindNoOp: func(Config, Deps) (Condenser, error) {
			return NewNoOp(), nil
		},
		KindRecentEvents: func(cfg Config, _ Deps) (Condenser, error) {
			return NewRecentEvents(cfg.MaxEvents, cfg.KeepFirst)
		},
		KindAmortizedForgetting: func(cfg Config, _ Deps) (Condenser, error) {
			return NewAmortizedForgetting(cfg.MaxSize, cfg.KeepFirst)
		},
		KindObservationMasking: func(cfg Config, _ Deps) (Condenser, error) {
			return NewObservationMasking(cfg.AttentionWindow)
		},
		KindBrowserOutput: func(cfg Config, _ Deps) (Condenser, error) {
			return NewBrowserOutput(cfg.AttentionWindow)
		},
		KindLLMSummarizing: func(cfg Config, deps Deps) (Condenser, error) {
			return NewLLMSummarizing(LLMSummarizingOptions{
				Client:         deps.Client,
				ModelID:        cfg.Model,
				MaxSize:        cfg.MaxSize,
				KeepFirst:      cfg.KeepFirst,
				MaxEventLength: cfg.MaxEventLength,
			})
		},
		KindLLMAttention: func(cfg Config, deps Deps) (Condenser, error) {
			return NewLLMAttention(LLMAttentionOptions{
				Client:    deps.Client,
				ModelID:   cfg.Model,
				MaxSize:   cfg.MaxSize,
				KeepFirst: cfg.KeepFirst,
			})
		},
		KindStructuredSummary: func(cfg Config, deps Deps) (Condenser, error) {
			return NewStructuredSummary(StructuredSummaryOptions{
				Client:    deps.Client,
				ModelID:   cfg.Model,
				MaxSize:   cfg.MaxSize,
				KeepFirst: cfg.KeepFirst,
			})
		},
		KindTokenAware: func(cfg Config, deps Deps) (Condenser, error) {
			return NewTokenAware(TokenAwareOptions{
				Client:         deps.Client,
				ModelID:        cfg.Model,
				Estimator:      deps.Estimator,
				MaxInputTokens: cfg.MaxInputTokens,
				Threshold:      cfg.Threshold,
				KeepFirst:      cfg.KeepFirst,
				MaxEventLength: cfg.MaxEventLength,
			})
		},
		KindTaskCompletion: func(Config, Deps) (Condenser, error) {
			return NewTaskCompletion(), nil
		},
	}
	return factories
}

// RegisterPipeline wires the pipeline factory against the given registry so
// nested stage configurations resolve through it. It is split from
// builtinFactories because the factory needs the registry itself.
func registerPipeline(r *Registry) error {
	return r.Register(KindPipeline, func(cfg Config, deps Deps) (Condenser, error) {
		if len(cfg.Stages) == 0 {
			return nil, fmt.Errorf("pipeline requires at least one stage")
		}
		stages := make([]Condenser, len(cfg.Stages))
		for i, sc := range cfg.Stages {
			stage, err := r.Build(sc, deps)
			if err != nil {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
			stages[i] = stage
		}
		return NewPipeline(stages...)
	})
}
