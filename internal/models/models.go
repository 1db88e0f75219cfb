// Package models defines the types shared by the transformer
// architectures: model interfaces, forward outputs and configuration
// errors. The concrete architectures live in subpackages and register
// themselves with the auto package for model-type dispatch.
package models

import (
	"fmt"

	"github.com/KennethEnevoldsen/curated-transformers/internal/kvcache"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// ConfigurationError reports an invalid model configuration or a forward
// call whose inputs do not match the model's geometry. It is always
// returned before any compute runs.
type ConfigurationError struct {
	msg string
}

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return e.msg
}

// EncoderOutput is the result of an encoder forward pass: the hidden states
// of the embedding layer and every transformer layer, in order.
type EncoderOutput struct {
	AllHiddenStates []*tensor.Tensor
}

// LastHiddenState returns the output of the final layer, shaped
// [batch, seq, hidden].
func (o *EncoderOutput) LastHiddenState() *tensor.Tensor {
	return o.AllHiddenStates[len(o.AllHiddenStates)-1]
}

// CausalLMOutput is the result of a causal language model forward pass.
// With a non-empty cache the logits cover only the last input position;
// otherwise they cover the full sequence.
type CausalLMOutput struct {
	Logits *tensor.Tensor
}

// Encoder is a bidirectional transformer encoder.
type Encoder interface {
	// Forward encodes ids [batch, seq] under an optional bool attention
	// mask [batch, seq].
	Forward(ids, mask *tensor.Tensor) (*EncoderOutput, error)
}

// CausalLM is an autoregressive decoder with optional key-value caching.
type CausalLM interface {
	// Forward decodes ids [batch, seq]. mask covers cached positions plus
	// the input. cache may be nil for uncached forward passes.
	Forward(ids, mask *tensor.Tensor, cache *kvcache.Cache) (*CausalLMOutput, error)

	// NewCache preallocates a cache matching the model geometry.
	NewCache(batch, capacity int) *kvcache.Cache
}

// ValidateCache checks a cache against the model geometry and the input
// batch before any compute touches it.
func ValidateCache(cache *kvcache.Cache, numLayers, batch int) error {
	if cache == nil {
		return nil
	}
	if cache.Layers() != numLayers {
		return NewConfigurationError("cache has %d layers, model has %d", cache.Layers(), numLayers)
	}
	if cache.Batch() != batch {
		return NewConfigurationError("cache was allocated for batch size %d, input has batch size %d", cache.Batch(), batch)
	}
	return nil
}

// ValidateMask checks that a bool attention mask matches the expected
// geometry. keyLen includes cached positions.
func ValidateMask(mask *tensor.Tensor, batch, keyLen int) error {
	if mask == nil {
		return nil
	}
	shape := mask.Shape()
	if len(shape) != 2 || shape[0] != batch || shape[1] != keyLen {
		return NewConfigurationError("attention mask %v does not match batch %d and key length %d", shape, batch, keyLen)
	}
	if mask.DType() != tensor.Bool {
		return NewConfigurationError("attention mask must be a bool tensor, got %v", mask.DType())
	}
	return nil
}
