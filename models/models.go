// Package models provides the public API for loading and running the
// transformer models: BERT and RoBERTa encoders, LLaMA and GPT-NeoX causal
// decoders.
//
// Models load from a repository, either a local directory or the Hugging
// Face hub, and dispatch on the config.json model type:
//
//	repo := hub.NewLocalDir("/models/bert-base-uncased")
//	encoder, _ := models.AutoEncoder(repo)
//	out, _ := encoder.Forward(ids, mask)
package models

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models/auto"
	"github.com/KennethEnevoldsen/curated-transformers/internal/quant"
)

// ConfigurationError reports an invalid configuration or a forward call
// whose inputs do not match the model's geometry.
type ConfigurationError = models.ConfigurationError

// EncoderOutput is the result of an encoder forward pass.
type EncoderOutput = models.EncoderOutput

// CausalLMOutput is the result of a causal language model forward pass.
type CausalLMOutput = models.CausalLMOutput

// Encoder is a bidirectional transformer encoder.
type Encoder = models.Encoder

// CausalLM is an autoregressive decoder with key-value caching.
type CausalLM = models.CausalLM

// StateDict maps checkpoint parameter names to loaded tensors.
type StateDict = models.StateDict

// AutoEncoder loads an encoder of any supported architecture from a
// repository, dispatching on the config.json model type.
func AutoEncoder(repo hub.Repository) (Encoder, error) {
	return auto.Encoder(repo)
}

// AutoCausalLM loads a causal language model of any supported architecture
// from a repository, dispatching on the config.json model type.
func AutoCausalLM(repo hub.Repository) (CausalLM, error) {
	return auto.CausalLM(repo)
}

// AutoCausalLMQuantized loads like AutoCausalLM but quantizes the
// checkpoint before construction, honoring the model's excluded modules.
func AutoCausalLMQuantized(repo hub.Repository, q Quantizer) (CausalLM, error) {
	return auto.CausalLMQuantized(repo, q)
}

// ModelType reads the model_type field of a repository's config.json.
func ModelType(repo hub.Repository) (string, error) {
	return auto.ModelType(repo)
}

// Quantizable is implemented by models that constrain quantization.
type Quantizable = quant.Quantizable

// Quantizer transforms individual parameters of a state dict.
type Quantizer = quant.Quantizer

// Float16 rounds weights through IEEE half precision.
type Float16 = quant.Float16

// Quantize runs a quantizer over a state dict in place, honoring the
// model's excluded modules.
func Quantize(params StateDict, q Quantizer, model Quantizable) error {
	return quant.Apply(params, q, model.ModulesToNotQuantize())
}
