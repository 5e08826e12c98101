package model

type (
	// TokenEstimator approximates the prompt token cost of a message
	// sequence. Token-budget condensers and rate limiters use estimates to
	// decide when to act; estimates need not be exact, only monotone in
	// content size.
	TokenEstimator interface {
		EstimateTokens(msgs []*Message) int
	}

	// HeuristicEstimator estimates tokens from character counts. It assumes
	// roughly one token per three characters and adds a fixed buffer for
	// provider framing and system overhead.
	HeuristicEstimator struct {
		// CharsPerToken overrides the character-to-token ratio. Zero means 3.
		CharsPerToken int
		// Overhead is added to every estimate. Zero means 500.
		Overhead int
	}
)

// EstimateTokens implements TokenEstimator.
func (h HeuristicEstimator) EstimateTokens(msgs []*Message) int {
	ratio := h.CharsPerToken
	if ratio <= 0 {
		ratio = 3
	}
	overhead := h.Overhead
	if overhead <= 0 {
		overhead = 500
	}
	chars := 0
	for _, m := range msgs {
		if m == nil {
			continue
		}
		chars += len(m.Content)
	}
	if chars == 0 {
		return overhead
	}
	tokens := chars / ratio
	if tokens < 1 {
		tokens = 1
	}
	return tokens + overhead
}
