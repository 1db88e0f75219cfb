package layers

import (
	"fmt"
	"math"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// RotaryEmbedding rotates query and key states by position-dependent angles.
// Only the first dim features of each head are rotated, which supports
// GPT-NeoX-style partial rotary embeddings; LLaMA rotates the full head.
type RotaryEmbedding struct {
	dim  int
	base float64
}

// NewRotaryEmbedding creates a rotary encoder over dim features per head
// with the given frequency base (10000 for LLaMA and GPT-NeoX).
func NewRotaryEmbedding(dim int, base float64) *RotaryEmbedding {
	if dim%2 != 0 {
		panic(fmt.Sprintf("RotaryEmbedding: dim must be even, got %d", dim))
	}
	return &RotaryEmbedding{dim: dim, base: base}
}

// Dim returns the number of rotated features per head.
func (r *RotaryEmbedding) Dim() int {
	return r.dim
}

// Apply rotates x of shape [batch, heads, seq, headDim]. The absolute
// position of sequence index s is offset + s, so cached decoding passes the
// current cache length as offset.
func (r *RotaryEmbedding) Apply(x *tensor.Tensor, offset int) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("RotaryEmbedding.Apply: expected [batch, heads, seq, headDim], got %v", shape))
	}
	headDim := shape[3]
	if r.dim > headDim {
		panic(fmt.Sprintf("RotaryEmbedding.Apply: rotary dim %d exceeds head dim %d", r.dim, headDim))
	}

	out := x.Clone()
	data := out.AsFloat32()
	batch, heads, seq := shape[0], shape[1], shape[2]
	half := r.dim / 2

	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			for s := 0; s < seq; s++ {
				row := data[((b*heads+h)*seq+s)*headDim:][:headDim]
				pos := float64(offset + s)
				for i := 0; i < half; i++ {
					theta := pos * math.Pow(r.base, -2*float64(i)/float64(r.dim))
					sin, cos := math.Sincos(theta)
					x1, x2 := row[i], row[i+half]
					row[i] = x1*float32(cos) - x2*float32(sin)
					row[i+half] = x1*float32(sin) + x2*float32(cos)
				}
			}
		}
	}
	return out
}
