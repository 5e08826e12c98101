package condenser

import (
	"context"
	"fmt"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// Pipeline chains condensers: each stage condenses the view produced by the
// previous one. The first stage to emit a condensation short-circuits the
// chain, since the pending condensation changes the log and every later
// stage must see the post-condensation history instead.
type Pipeline struct {
	meta

	stages []Condenser
}

// NewPipeline returns a condenser that runs the stages in order.
func NewPipeline(stages ...Condenser) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one stage")
	}
	return &Pipeline{stages: stages}, nil
}

// Condense threads the events through each stage, returning early on the
// first condensation or error.
func (c *Pipeline) Condense(ctx context.Context, events []*event.Event) (Result, error) {
	cur := events
	for i, stage := range c.stages {
		res, err := stage.Condense(ctx, cur)
		if err != nil {
			return Result{}, fmt.Errorf("pipeline stage %d: %w", i, err)
		}
		if res.Condensation != nil {
			c.AddMetadata("condensed_by_stage", i)
			return res, nil
		}
		cur = res.View.Events
	}
	return viewResult(event.Wrap(cur)), nil
}

// FlushTo drains the pipeline's own batch and each stage's, preserving stage
// order, so per-stage diagnostics survive the chaining.
func (c *Pipeline) FlushTo(rec *Recorder) {
	c.meta.FlushTo(rec)
	for _, stage := range c.stages {
		if mp, ok := stage.(MetadataProvider); ok {
			mp.FlushTo(rec)
		}
	}
}
