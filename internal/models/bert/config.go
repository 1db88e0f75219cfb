// Package bert implements the BERT bidirectional encoder.
package bert

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
)

// Config holds the BERT hyperparameters.
type Config struct {
	VocabSize        int
	HiddenSize       int
	IntermediateSize int
	NumLayers        int
	NumHeads         int
	MaxPositions     int
	TypeVocabSize    int
	LayerNormEps     float32
	Activation       layers.Activation
}

// DefaultConfig returns the bert-base geometry.
func DefaultConfig() *Config {
	return &Config{
		VocabSize:        30522,
		HiddenSize:       768,
		IntermediateSize: 3072,
		NumLayers:        12,
		NumHeads:         12,
		MaxPositions:     512,
		TypeVocabSize:    2,
		LayerNormEps:     1e-12,
		Activation:       layers.ActivationGELU,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.HiddenSize%c.NumHeads != 0 {
		return models.NewConfigurationError("hidden size %d is not divisible by %d heads", c.HiddenSize, c.NumHeads)
	}
	if c.VocabSize <= 0 || c.NumLayers <= 0 {
		return models.NewConfigurationError("vocab size and layer count must be positive")
	}
	return nil
}
