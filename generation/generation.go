// Package generation provides the public API for autoregressive decoding.
//
//	gen, _ := generation.NewGenerator(model, generation.DefaultConfig())
//	ids, _ := gen.Generate(ctx, promptIDs)
package generation

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/generation"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
)

// Config configures the decoding loop.
type Config = generation.Config

// SamplingConfig configures how pieces are drawn from logits.
type SamplingConfig = generation.SamplingConfig

// Generator decodes sequences from a causal language model.
type Generator = generation.Generator

// Session decodes a single sequence step by step.
type Session = generation.Session

// State is the phase of a decoding session.
type State = generation.State

const (
	StateEmpty     State = generation.StateEmpty
	StatePrimed    State = generation.StatePrimed
	StateExtending State = generation.StateExtending
	StateDone      State = generation.StateDone
)

// DefaultConfig decodes greedily for up to 256 pieces.
func DefaultConfig() Config {
	return generation.DefaultConfig()
}

// DefaultSamplingConfig samples from the unmodified distribution.
func DefaultSamplingConfig() SamplingConfig {
	return generation.DefaultSamplingConfig()
}

// NewGenerator creates a generator for a causal language model.
func NewGenerator(model models.CausalLM, config Config) (*Generator, error) {
	return generation.NewGenerator(model, config)
}

// Sampler draws piece ids from logits.
type Sampler = generation.Sampler

// NewSampler creates a sampler.
func NewSampler(config SamplingConfig) *Sampler {
	return generation.NewSampler(config)
}
