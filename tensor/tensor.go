// Package tensor provides the public API for the dense tensors the models
// compute with.
//
// Tensors are row-major, CPU-resident and carry a dynamic data type:
//
//	x, _ := tensor.FromFloats([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
//	y := x.MatMul(x.Transpose(1, 0))
package tensor

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// DataType identifies the element type of a tensor.
type DataType = tensor.DataType

const (
	Float32 DataType = tensor.Float32
	Int32   DataType = tensor.Int32
	Bool    DataType = tensor.Bool
)

// Device identifies where tensor data resides.
type Device = tensor.Device

const (
	CPU Device = tensor.CPU
)

// Shape holds the dimensions of a tensor.
type Shape = tensor.Shape

// Tensor is a dense row-major array of Float32, Int32 or Bool elements.
type Tensor = tensor.Tensor

// Zeros creates a Float32 tensor filled with zeros.
func Zeros(shape Shape, device Device) *Tensor {
	return tensor.Zeros(shape, device)
}

// Full creates a Float32 tensor filled with a value.
func Full(shape Shape, value float32, device Device) *Tensor {
	return tensor.Full(shape, value, device)
}

// FromFloats creates a Float32 tensor from a slice.
func FromFloats(data []float32, shape Shape, device Device) (*Tensor, error) {
	return tensor.FromFloats(data, shape, device)
}

// FromInts creates an Int32 tensor from a slice.
func FromInts(data []int32, shape Shape, device Device) (*Tensor, error) {
	return tensor.FromInts(data, shape, device)
}

// FromBools creates a Bool tensor from a slice.
func FromBools(data []bool, shape Shape, device Device) (*Tensor, error) {
	return tensor.FromBools(data, shape, device)
}

// Cat concatenates tensors along a dimension.
func Cat(tensors []*Tensor, dim int) *Tensor {
	return tensor.Cat(tensors, dim)
}
