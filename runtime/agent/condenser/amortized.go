package condenser

import (
	"context"

	"github.com/skeinworks/skein/runtime/agent/event"
)

// AmortizedForgetting is the plain rolling strategy: once the view outgrows
// maxSize it forgets the middle outright, keeping the first keepFirst events
// and enough of the newest ones to land at half of maxSize. No summary is
// produced, which keeps each trigger O(1) model calls (zero) while the view
// grows and shrinks in amortized constant work per event.
type AmortizedForgetting struct {
	meta

	maxSize   int
	keepFirst int
}

// NewAmortizedForgetting returns a summary-free halving condenser. keepFirst
// must be strictly less than half of maxSize so the post-condensation view
// always retains at least one recent event.
func NewAmortizedForgetting(maxSize, keepFirst int) (*AmortizedForgetting, error) {
	if err := validateHalving(maxSize, keepFirst); err != nil {
		return nil, err
	}
	return &AmortizedForgetting{maxSize: maxSize, keepFirst: keepFirst}, nil
}

// Condense applies the rolling contract.
func (c *AmortizedForgetting) Condense(ctx context.Context, events []*event.Event) (Result, error) {
	return Roll(ctx, c, events)
}

// ShouldCondense triggers once the view exceeds maxSize.
func (c *AmortizedForgetting) ShouldCondense(view *event.View) bool {
	return view.Len() > c.maxSize
}

// GetCondensation forgets everything between the head and the retained tail,
// by explicit id list.
func (c *AmortizedForgetting) GetCondensation(_ context.Context, view *event.View) (*Condensation, error) {
	_, forgotten, _ := splitHalving(view, c.keepFirst, c.maxSize/2, false)
	ids := realIDs(forgotten)
	if len(ids) == 0 {
		return nil, nil
	}
	c.AddMetadata("forgotten_count", len(ids))
	return &Condensation{Action: event.CondensationAction{Forgotten: ids}}, nil
}
