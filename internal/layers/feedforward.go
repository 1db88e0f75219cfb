package layers

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// FeedForward is the position-wise block of a transformer layer. With a
// gate projection it computes down(act(gate(x)) * up(x)), the gated form
// used by LLaMA; without one it is the classic down(act(up(x))).
type FeedForward struct {
	up         *Linear
	gate       *Linear
	down       *Linear
	activation Activation
}

// NewFeedForward assembles a feed-forward block. gate may be nil.
func NewFeedForward(up, gate, down *Linear, activation Activation) *FeedForward {
	return &FeedForward{
		up:         up,
		gate:       gate,
		down:       down,
		activation: activation,
	}
}

func (f *FeedForward) Forward(x *tensor.Tensor) *tensor.Tensor {
	if f.gate != nil {
		gated := f.activation.Apply(f.gate.Forward(x)).Mul(f.up.Forward(x))
		return f.down.Forward(gated)
	}
	return f.down.Forward(f.activation.Apply(f.up.Forward(x)))
}
