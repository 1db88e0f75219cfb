package tensor

import "fmt"

// Zeros creates a zero-filled float32 tensor.
func Zeros(shape Shape, device Device) *Tensor {
	return MustNew(shape, Float32, device)
}

// Full creates a float32 tensor filled with a constant value.
func Full(shape Shape, value float32, device Device) *Tensor {
	t := MustNew(shape, Float32, device)
	data := t.AsFloat32()
	for i := range data {
		data[i] = value
	}
	return t
}

// FromFloats creates a float32 tensor from a slice. The slice is copied.
func FromFloats(data []float32, shape Shape, device Device) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape, Float32, device)
	if err != nil {
		return nil, err
	}
	copy(t.AsFloat32(), data)
	return t, nil
}

// FromInts creates an int32 tensor from a slice. The slice is copied.
func FromInts(data []int32, shape Shape, device Device) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape, Int32, device)
	if err != nil {
		return nil, err
	}
	copy(t.AsInt32(), data)
	return t, nil
}

// FromBools creates a bool tensor from a slice. The slice is copied.
func FromBools(data []bool, shape Shape, device Device) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape, Bool, device)
	if err != nil {
		return nil, err
	}
	copy(t.AsBool(), data)
	return t, nil
}
