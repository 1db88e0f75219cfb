package layers

import (
	"fmt"
	"math"

	"github.com/KennethEnevoldsen/curated-transformers/internal/kvcache"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

var maskedScore = float32(math.Inf(-1))

// SelfAttention is multi-head scaled dot-product attention with optional
// rotary position encoding and an optional key-value cache.
type SelfAttention struct {
	query  *Linear
	key    *Linear
	value  *Linear
	output *Linear
	heads  int
	rotary *RotaryEmbedding
}

// NewSelfAttention assembles an attention block from its projections. The
// rotary encoder may be nil for architectures with learned positions.
func NewSelfAttention(query, key, value, output *Linear, heads int, rotary *RotaryEmbedding) *SelfAttention {
	if query.OutFeatures()%heads != 0 {
		panic(fmt.Sprintf("SelfAttention: query width %d not divisible by %d heads", query.OutFeatures(), heads))
	}
	return &SelfAttention{
		query:  query,
		key:    key,
		value:  value,
		output: output,
		heads:  heads,
		rotary: rotary,
	}
}

// Heads returns the number of attention heads.
func (a *SelfAttention) Heads() int {
	return a.heads
}

// HeadDim returns the per-head width.
func (a *SelfAttention) HeadDim() int {
	return a.query.OutFeatures() / a.heads
}

// Forward attends over x of shape [batch, seq, model].
//
// mask is an optional bool tensor [batch, keyLen] marking valid key
// positions; keyLen covers cached positions plus the current input. When a
// cache is given the new keys and values are appended to it and attention
// runs over the full cached sequence. causal restricts each query to key
// positions at or before its own absolute position.
func (a *SelfAttention) Forward(x, mask *tensor.Tensor, cache *kvcache.LayerCache, causal bool) (*tensor.Tensor, error) {
	shape := x.Shape()
	batch, seq := shape[0], shape[1]
	headDim := a.HeadDim()

	// [batch, seq, width] -> [batch, heads, seq, headDim]
	split := func(t *tensor.Tensor) *tensor.Tensor {
		return t.Reshape(batch, seq, a.heads, headDim).Transpose(0, 2, 1, 3)
	}
	query := split(a.query.Forward(x))
	key := split(a.key.Forward(x))
	value := split(a.value.Forward(x))

	offset := 0
	if cache != nil {
		offset = cache.Length()
	}
	if a.rotary != nil {
		query = a.rotary.Apply(query, offset)
		key = a.rotary.Apply(key, offset)
	}

	if cache != nil {
		if err := cache.Append(key, value); err != nil {
			return nil, fmt.Errorf("failed to extend key-value cache: %w", err)
		}
		key = cache.Key()
		value = cache.Value()
	}

	// [batch, heads, seq, keyLen]
	scores := query.BatchMatMul(key.Transpose(0, 1, 3, 2))
	scores = scores.MulScalar(1 / float32(math.Sqrt(float64(headDim))))
	applyMasks(scores, mask, causal, offset)

	context := scores.Softmax().BatchMatMul(value)

	// [batch, heads, seq, headDim] -> [batch, seq, width]
	merged := context.Transpose(0, 2, 1, 3).Reshape(batch, seq, a.heads*headDim)
	return a.output.Forward(merged), nil
}

// applyMasks writes -inf into masked score positions in place. scores has
// shape [batch, heads, seq, keyLen].
func applyMasks(scores, mask *tensor.Tensor, causal bool, offset int) {
	shape := scores.Shape()
	batch, heads, seq, keyLen := shape[0], shape[1], shape[2], shape[3]

	var maskData []bool
	if mask != nil {
		maskShape := mask.Shape()
		if len(maskShape) != 2 || maskShape[0] != batch || maskShape[1] != keyLen {
			panic(fmt.Sprintf("attention mask %v does not match scores %v", maskShape, shape))
		}
		maskData = mask.AsBool()
	}

	data := scores.AsFloat32()
	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			for q := 0; q < seq; q++ {
				row := data[((b*heads+h)*seq+q)*keyLen:][:keyLen]
				for k := 0; k < keyLen; k++ {
					if causal && k > offset+q {
						row[k] = maskedScore
						continue
					}
					if maskData != nil && !maskData[b*keyLen+k] {
						row[k] = maskedScore
					}
				}
			}
		}
	}
}
