package layers

import (
	"math"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// Normalizer normalizes activations over the last dimension.
type Normalizer interface {
	Forward(x *tensor.Tensor) *tensor.Tensor
}

// LayerNorm subtracts the mean and divides by the standard deviation before
// applying the learned scale and shift.
type LayerNorm struct {
	weight *tensor.Tensor
	bias   *tensor.Tensor
	eps    float32
}

func NewLayerNorm(weight, bias *tensor.Tensor, eps float32) *LayerNorm {
	return &LayerNorm{weight: weight, bias: bias, eps: eps}
}

func (n *LayerNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	data := out.AsFloat32()
	weight := n.weight.AsFloat32()
	var bias []float32
	if n.bias != nil {
		bias = n.bias.AsFloat32()
	}

	width := x.Shape()[len(x.Shape())-1]
	for off := 0; off < len(data); off += width {
		row := data[off : off+width]
		var mean float32
		for _, v := range row {
			mean += v
		}
		mean /= float32(width)
		var variance float32
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= float32(width)
		inv := 1 / float32(math.Sqrt(float64(variance+n.eps)))
		for i, v := range row {
			row[i] = (v - mean) * inv * weight[i]
			if bias != nil {
				row[i] += bias[i]
			}
		}
	}
	return out
}

// RMSNorm divides by the root mean square without centering, as used by
// LLaMA.
type RMSNorm struct {
	weight *tensor.Tensor
	eps    float32
}

func NewRMSNorm(weight *tensor.Tensor, eps float32) *RMSNorm {
	return &RMSNorm{weight: weight, eps: eps}
}

func (n *RMSNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	data := out.AsFloat32()
	weight := n.weight.AsFloat32()

	width := x.Shape()[len(x.Shape())-1]
	for off := 0; off < len(data); off += width {
		row := data[off : off+width]
		var sumSq float32
		for _, v := range row {
			sumSq += v * v
		}
		inv := 1 / float32(math.Sqrt(float64(sumSq/float32(width)+n.eps)))
		for i, v := range row {
			row[i] = v * inv * weight[i]
		}
	}
	return out
}
