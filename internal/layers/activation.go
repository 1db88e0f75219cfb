package layers

import (
	"fmt"
	"math"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// Activation selects the pointwise nonlinearity of a feed-forward block.
type Activation int

const (
	// ActivationGELU is the exact Gaussian error linear unit.
	ActivationGELU Activation = iota
	// ActivationSiLU is x * sigmoid(x), used by LLaMA's gated blocks.
	ActivationSiLU
	// ActivationReLU clamps negatives to zero.
	ActivationReLU
)

func (a Activation) String() string {
	switch a {
	case ActivationGELU:
		return "gelu"
	case ActivationSiLU:
		return "silu"
	case ActivationReLU:
		return "relu"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

// ParseActivation maps HuggingFace activation names onto Activation values.
func ParseActivation(name string) (Activation, error) {
	switch name {
	case "gelu", "gelu_new", "gelu_fast":
		return ActivationGELU, nil
	case "silu", "swish":
		return ActivationSiLU, nil
	case "relu":
		return ActivationReLU, nil
	default:
		return 0, fmt.Errorf("unknown activation %q", name)
	}
}

// Apply runs the activation elementwise.
func (a Activation) Apply(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	data := out.AsFloat32()
	switch a {
	case ActivationGELU:
		for i, v := range data {
			data[i] = v * 0.5 * float32(1+math.Erf(float64(v)/math.Sqrt2))
		}
	case ActivationSiLU:
		for i, v := range data {
			data[i] = v / float32(1+math.Exp(float64(-v)))
		}
	case ActivationReLU:
		for i, v := range data {
			if v < 0 {
				data[i] = 0
			}
		}
	default:
		panic(fmt.Sprintf("unsupported activation %v", a))
	}
	return out
}
