package condenser

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes a condenser declaratively, with kind selecting the
// strategy and the remaining fields interpreted per strategy. Pipelines nest
// stage configurations recursively.
type Config struct {
	// Kind selects the strategy; see the Kind constants.
	Kind string `yaml:"kind" json:"kind"`

	// MaxSize is the view size that triggers the halving strategies.
	MaxSize int `yaml:"max_size,omitempty" json:"max_size,omitempty"`

	// MaxEvents is the window size for recent_events.
	MaxEvents int `yaml:"max_events,omitempty" json:"max_events,omitempty"`

	// KeepFirst is the number of leading events always retained.
	KeepFirst int `yaml:"keep_first,omitempty" json:"keep_first,omitempty"`

	// AttentionWindow is the unmasked window for the masking strategies.
	AttentionWindow int `yaml:"attention_window,omitempty" json:"attention_window,omitempty"`

	// Model overrides the client's default model for LLM strategies.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// MaxEventLength bounds rendered event length in summarization prompts.
	MaxEventLength int `yaml:"max_event_length,omitempty" json:"max_event_length,omitempty"`

	// MaxInputTokens is the context budget for token_aware.
	MaxInputTokens int `yaml:"max_input_tokens,omitempty" json:"max_input_tokens,omitempty"`

	// Threshold is the budget fraction that triggers token_aware.
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// Stages lists the nested configurations of a pipeline.
	Stages []Config `yaml:"stages,omitempty" json:"stages,omitempty"`
}

// ParseConfig decodes a YAML condenser configuration.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse condenser config: %w", err)
	}
	if cfg.Kind == "" {
		return Config{}, fmt.Errorf("condenser config is missing kind")
	}
	return cfg, nil
}

// LoadConfig reads and decodes a YAML condenser configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read condenser config: %w", err)
	}
	return ParseConfig(data)
}
