// Package llama implements the LLaMA causal decoder: RMSNorm pre-norm
// residuals, rotary position encoding over full heads, and gated SiLU
// feed-forward blocks.
package llama

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
)

// Config holds the LLaMA hyperparameters.
type Config struct {
	VocabSize        int
	HiddenSize       int
	IntermediateSize int
	NumLayers        int
	NumHeads         int
	NumKVHeads       int
	RMSNormEps       float32
	RopeBase         float64
	Activation       layers.Activation
}

// DefaultConfig returns the 7B geometry.
func DefaultConfig() *Config {
	return &Config{
		VocabSize:        32000,
		HiddenSize:       4096,
		IntermediateSize: 11008,
		NumLayers:        32,
		NumHeads:         32,
		NumKVHeads:       32,
		RMSNormEps:       1e-6,
		RopeBase:         10000,
		Activation:       layers.ActivationSiLU,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.HiddenSize%c.NumHeads != 0 {
		return models.NewConfigurationError("hidden size %d is not divisible by %d heads", c.HiddenSize, c.NumHeads)
	}
	if c.NumKVHeads != c.NumHeads {
		return models.NewConfigurationError("grouped-query attention is not supported: %d query heads, %d key-value heads", c.NumHeads, c.NumKVHeads)
	}
	if c.VocabSize <= 0 || c.NumLayers <= 0 {
		return models.NewConfigurationError("vocab size and layer count must be positive")
	}
	return nil
}
