// Package layers contains the building blocks shared by the transformer
// architectures: projections, embeddings, normalization, rotary position
// encoding, attention and feed-forward blocks.
//
// Layers hold loaded weights and run inference only. Shape misuse panics;
// conditions that depend on runtime state (cache capacity, for example)
// return errors.
package layers

import (
	"fmt"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// Linear is a dense projection y = x @ W.T + b with weights of shape
// [outFeatures, inFeatures].
type Linear struct {
	weight *tensor.Tensor
	bias   *tensor.Tensor
}

// NewLinear creates a projection from loaded weights. The bias may be nil.
func NewLinear(weight, bias *tensor.Tensor) *Linear {
	if len(weight.Shape()) != 2 {
		panic(fmt.Sprintf("Linear: expected 2-D weight, got %v", weight.Shape()))
	}
	if bias != nil && bias.NumElements() != weight.Shape()[0] {
		panic(fmt.Sprintf("Linear: bias %v does not match weight %v", bias.Shape(), weight.Shape()))
	}
	return &Linear{weight: weight, bias: bias}
}

// InFeatures returns the input width.
func (l *Linear) InFeatures() int {
	return l.weight.Shape()[1]
}

// OutFeatures returns the output width.
func (l *Linear) OutFeatures() int {
	return l.weight.Shape()[0]
}

// Forward projects the last dimension of the input: [..., inFeatures] to
// [..., outFeatures].
func (l *Linear) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	in := shape[len(shape)-1]
	if in != l.InFeatures() {
		panic(fmt.Sprintf("Linear.Forward: expected %d input features, got %d", l.InFeatures(), in))
	}

	rows := x.NumElements() / in
	flat := x.Reshape(rows, in)
	out := flat.MatMul(l.weight.Transpose(1, 0))
	if l.bias != nil {
		out = out.Add(l.bias)
	}

	outShape := shape.Clone()
	outShape[len(outShape)-1] = l.OutFeatures()
	return out.Reshape(outShape...)
}
