// Package quant defines the interfaces between models and weight
// quantizers. Models advertise which modules must stay in full precision;
// quantizers transform individual parameters.
package quant

import (
	"fmt"
	"strings"

	"github.com/x448/float16"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// Quantizable is implemented by models that constrain quantization.
type Quantizable interface {
	// ModulesToNotQuantize names modules a quantizer must leave in full
	// precision.
	ModulesToNotQuantize() []string
}

// Quantizer transforms a single named parameter.
type Quantizer interface {
	Quantize(name string, t *tensor.Tensor) (*tensor.Tensor, error)
}

// Apply runs a quantizer over a state dict in place, skipping parameters
// whose name contains one of the excluded module names.
func Apply(params map[string]*tensor.Tensor, q Quantizer, exclude []string) error {
	for name, t := range params {
		if excluded(name, exclude) || t.DType() != tensor.Float32 {
			continue
		}
		quantized, err := q.Quantize(name, t)
		if err != nil {
			return fmt.Errorf("failed to quantize %q: %w", name, err)
		}
		params[name] = quantized
	}
	return nil
}

func excluded(name string, exclude []string) bool {
	for _, module := range exclude {
		if strings.Contains(name, module) {
			return true
		}
	}
	return false
}

// Float16 rounds weights through IEEE half precision, halving their
// effective precision while keeping the float32 compute path.
type Float16 struct{}

func (Float16) Quantize(_ string, t *tensor.Tensor) (*tensor.Tensor, error) {
	out := t.Clone()
	data := out.AsFloat32()
	for i, v := range data {
		data[i] = float16.Fromfloat32(v).Float32()
	}
	return out, nil
}
