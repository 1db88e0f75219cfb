// Package tensor provides dense row-major tensors and the CPU kernels used
// by the transformer layers. Tensors are contiguous; views are materialized.
package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor is a dense multi-dimensional array with a runtime element type.
type Tensor struct {
	shape  Shape
	stride []int
	dtype  DataType
	device Device
	data   []byte
}

// New creates a zero-initialized tensor with the given shape and type.
func New(shape Shape, dtype DataType, device Device) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Tensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
		data:   make([]byte, shape.NumElements()*dtype.Size()),
	}, nil
}

// MustNew is New that panics on invalid shapes. Shapes computed by the
// library itself are always valid, so internal callers use this form.
func MustNew(shape Shape, dtype DataType, device Device) *Tensor {
	t, err := New(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int {
	return t.shape[i]
}

// DType returns the tensor's element type.
func (t *Tensor) DType() DataType {
	return t.dtype
}

// Device returns the tensor's device.
func (t *Tensor) Device() Device {
	return t.device
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (t *Tensor) AsFloat32() []float32 {
	if t.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (t *Tensor) AsInt32() []int32 {
	if t.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (t *Tensor) AsBool() []bool {
	if t.dtype != Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not bool", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*bool)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := MustNew(t.shape, t.dtype, t.device)
	copy(c.data, t.data)
	return c
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.dtype, t.shape, t.device)
}

// sameDevice panics when two tensors live in different memory spaces.
func sameDevice(op string, a, b *Tensor) {
	if a.device != b.device {
		panic(fmt.Sprintf("%s: device mismatch: %s vs %s", op, a.device, b.device))
	}
}
