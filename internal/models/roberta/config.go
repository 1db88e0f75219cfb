// Package roberta implements the RoBERTa bidirectional encoder. The
// architecture matches BERT, but learned positions start after the padding
// id and the tokenizer is byte-level BPE.
package roberta

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
)

// Config holds the RoBERTa hyperparameters.
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

	// PadID is the padding piece id; learned positions start at PadID+1.
	PadID int
}

// DefaultConfig returns the roberta-base geometry.
func DefaultConfig() *Config {
	return &Config{
		VocabSize:        50265,
		HiddenSize:       768,
		IntermediateSize: 3072,
		NumLayers:        12,
		NumHeads:         12,
		MaxPositions:     514,
		TypeVocabSize:    1,
		LayerNormEps:     1e-5,
		Activation:       layers.ActivationGELU,
		PadID:            1,
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
