package layers

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/kvcache"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// Residual selects how a transformer layer combines attention, feed-forward
// and normalization.
type Residual int

const (
	// ResidualPostNorm normalizes after each residual addition (BERT,
	// RoBERTa).
	ResidualPostNorm Residual = iota
	// ResidualPreNorm normalizes the input of each sublayer (LLaMA).
	ResidualPreNorm
	// ResidualParallel runs attention and feed-forward on the same input
	// and sums both into the residual stream (GPT-NeoX).
	ResidualParallel
)

// TransformerLayer is one attention plus feed-forward block.
type TransformerLayer struct {
	attention *SelfAttention
	ffn       *FeedForward
	attnNorm  Normalizer
	ffnNorm   Normalizer
	residual  Residual
}

func NewTransformerLayer(attention *SelfAttention, ffn *FeedForward, attnNorm, ffnNorm Normalizer, residual Residual) *TransformerLayer {
	return &TransformerLayer{
		attention: attention,
		ffn:       ffn,
		attnNorm:  attnNorm,
		ffnNorm:   ffnNorm,
		residual:  residual,
	}
}

// Forward runs the layer over x of shape [batch, seq, model]. mask, cache
// and causal are passed through to attention.
func (l *TransformerLayer) Forward(x, mask *tensor.Tensor, cache *kvcache.LayerCache, causal bool) (*tensor.Tensor, error) {
	switch l.residual {
	case ResidualPostNorm:
		attnOut, err := l.attention.Forward(x, mask, cache, causal)
		if err != nil {
			return nil, err
		}
		hidden := l.attnNorm.Forward(x.Add(attnOut))
		return l.ffnNorm.Forward(hidden.Add(l.ffn.Forward(hidden))), nil

	case ResidualPreNorm:
		attnOut, err := l.attention.Forward(l.attnNorm.Forward(x), mask, cache, causal)
		if err != nil {
			return nil, err
		}
		hidden := x.Add(attnOut)
		return hidden.Add(l.ffn.Forward(l.ffnNorm.Forward(hidden))), nil

	default:
		attnOut, err := l.attention.Forward(l.attnNorm.Forward(x), mask, cache, causal)
		if err != nil {
			return nil, err
		}
		ffnOut := l.ffn.Forward(l.ffnNorm.Forward(x))
		return x.Add(attnOut).Add(ffnOut), nil
	}
}
