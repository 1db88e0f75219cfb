package models

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// StateDict maps checkpoint parameter names to loaded tensors. The
// architectures consume the upstream checkpoint names directly.
type StateDict map[string]*tensor.Tensor

// Tensor fetches a parameter by name.
func (s StateDict) Tensor(name string) (*tensor.Tensor, error) {
	t, ok := s[name]
	if !ok {
		return nil, NewConfigurationError("checkpoint is missing parameter %q", name)
	}
	return t, nil
}

// Linear builds a projection from a weight parameter and an optional bias.
// An empty biasName means the projection has no bias.
func (s StateDict) Linear(weightName, biasName string) (*layers.Linear, error) {
	weight, err := s.Tensor(weightName)
	if err != nil {
		return nil, err
	}
	var bias *tensor.Tensor
	if biasName != "" {
		if bias, err = s.Tensor(biasName); err != nil {
			return nil, err
		}
	}
	return layers.NewLinear(weight, bias), nil
}

// Embedding builds a lookup table from a weight parameter.
func (s StateDict) Embedding(weightName string) (*layers.Embedding, error) {
	weight, err := s.Tensor(weightName)
	if err != nil {
		return nil, err
	}
	return layers.NewEmbedding(weight), nil
}

// LayerNorm builds a layer normalization from weight and bias parameters.
func (s StateDict) LayerNorm(weightName, biasName string, eps float32) (*layers.LayerNorm, error) {
	weight, err := s.Tensor(weightName)
	if err != nil {
		return nil, err
	}
	bias, err := s.Tensor(biasName)
	if err != nil {
		return nil, err
	}
	return layers.NewLayerNorm(weight, bias, eps), nil
}

// RMSNorm builds a root-mean-square normalization from a weight parameter.
func (s StateDict) RMSNorm(weightName string, eps float32) (*layers.RMSNorm, error) {
	weight, err := s.Tensor(weightName)
	if err != nil {
		return nil, err
	}
	return layers.NewRMSNorm(weight, eps), nil
}
