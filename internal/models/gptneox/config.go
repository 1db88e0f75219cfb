// Package gptneox implements the GPT-NeoX causal decoder: parallel
// attention and feed-forward residuals, partial rotary embeddings, and a
// fused query-key-value projection in the checkpoint format.
package gptneox

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
)

// Config holds the GPT-NeoX hyperparameters.
type Config struct {
	VocabSize        int
	HiddenSize       int
	IntermediateSize int
	NumLayers        int
	NumHeads         int
	LayerNormEps     float32
	Activation       layers.Activation

	// RotaryPct is the fraction of each head that rotary embeddings cover.
	RotaryPct float32
	RopeBase  float64

	// UseParallelResidual sums attention and feed-forward outputs into the
	// residual stream instead of chaining them.
	UseParallelResidual bool
}

// DefaultConfig returns the Pythia-style geometry defaults.
func DefaultConfig() *Config {
	return &Config{
		VocabSize:           50432,
		HiddenSize:          2048,
		IntermediateSize:    8192,
		NumLayers:           24,
		NumHeads:            16,
		LayerNormEps:        1e-5,
		Activation:          layers.ActivationGELU,
		RotaryPct:           0.25,
		RopeBase:            10000,
		UseParallelResidual: true,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.HiddenSize%c.NumHeads != 0 {
		return models.NewConfigurationError("hidden size %d is not divisible by %d heads", c.HiddenSize, c.NumHeads)
	}
	if c.RotaryPct <= 0 || c.RotaryPct > 1 {
		return models.NewConfigurationError("rotary percentage %v outside (0, 1]", c.RotaryPct)
	}
	if c.VocabSize <= 0 || c.NumLayers <= 0 {
		return models.NewConfigurationError("vocab size and layer count must be positive")
	}
	return nil
}

// RotaryDim returns the even number of rotated features per head.
func (c *Config) RotaryDim() int {
	dim := int(float32(c.HiddenSize/c.NumHeads) * c.RotaryPct)
	return dim - dim%2
}
