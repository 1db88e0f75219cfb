package tensor

import (
	"fmt"
	"math"
)

// Reshape returns a tensor with the same data and a new shape. The number of
// elements must match. The returned tensor shares the underlying buffer.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape := Shape(dims)
	if shape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("Reshape: cannot reshape %v into %v", t.shape, shape))
	}
	return &Tensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  t.dtype,
		device: t.device,
		data:   t.data,
	}
}

// Transpose permutes the dimensions of a float32 tensor. The result is
// materialized in row-major order.
func (t *Tensor) Transpose(perm ...int) *Tensor {
	if len(perm) != len(t.shape) {
		panic(fmt.Sprintf("Transpose: permutation %v does not match shape %v", perm, t.shape))
	}
	outShape := make(Shape, len(perm))
	for i, p := range perm {
		outShape[i] = t.shape[p]
	}
	out := MustNew(outShape, Float32, t.device)
	src := t.AsFloat32()
	dst := out.AsFloat32()

	inStride := t.stride
	n := t.NumElements()
	idx := make([]int, len(outShape))
	for i := 0; i < n; i++ {
		srcOff := 0
		for d := range idx {
			srcOff += idx[d] * inStride[perm[d]]
		}
		dst[i] = src[srcOff]
		// Advance the multi-index of the output tensor.
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

// MatMul computes the 2-D matrix product [m, k] @ [k, n] -> [m, n].
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	sameDevice("MatMul", t, other)
	if len(t.shape) != 2 || len(other.shape) != 2 {
		panic(fmt.Sprintf("MatMul: expected 2-D tensors, got %v and %v", t.shape, other.shape))
	}
	m, k := t.shape[0], t.shape[1]
	k2, n := other.shape[0], other.shape[1]
	if k != k2 {
		panic(fmt.Sprintf("MatMul: inner dimensions do not match: %v and %v", t.shape, other.shape))
	}
	out := MustNew(Shape{m, n}, Float32, t.device)
	matmul(out.AsFloat32(), t.AsFloat32(), other.AsFloat32(), m, k, n)
	return out
}

// BatchMatMul computes a batched matrix product over the leading two
// dimensions: [b, h, m, k] @ [b, h, k, n] -> [b, h, m, n].
func (t *Tensor) BatchMatMul(other *Tensor) *Tensor {
	sameDevice("BatchMatMul", t, other)
	if len(t.shape) != 4 || len(other.shape) != 4 {
		panic(fmt.Sprintf("BatchMatMul: expected 4-D tensors, got %v and %v", t.shape, other.shape))
	}
	b, h, m, k := t.shape[0], t.shape[1], t.shape[2], t.shape[3]
	if other.shape[0] != b || other.shape[1] != h || other.shape[2] != k {
		panic(fmt.Sprintf("BatchMatMul: shapes do not match: %v and %v", t.shape, other.shape))
	}
	n := other.shape[3]
	out := MustNew(Shape{b, h, m, n}, Float32, t.device)

	a := t.AsFloat32()
	bd := other.AsFloat32()
	od := out.AsFloat32()
	for batch := 0; batch < b*h; batch++ {
		matmul(od[batch*m*n:(batch+1)*m*n], a[batch*m*k:(batch+1)*m*k], bd[batch*k*n:(batch+1)*k*n], m, k, n)
	}
	return out
}

// matmul is the inner [m, k] @ [k, n] kernel shared by MatMul and
// BatchMatMul. The k-inner loop order keeps both operand accesses
// sequential.
func matmul(out, a, b []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		outRow := out[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			bRow := b[p*n : (p+1)*n]
			for j := range outRow {
				outRow[j] += av * bRow[j]
			}
		}
	}
}

// Add returns t + other with right-aligned broadcasting of other to t's
// shape (each trailing dimension must match or be 1).
func (t *Tensor) Add(other *Tensor) *Tensor {
	return t.broadcastBinary("Add", other, func(a, b float32) float32 { return a + b })
}

// Sub returns t - other with right-aligned broadcasting.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return t.broadcastBinary("Sub", other, func(a, b float32) float32 { return a - b })
}

// Mul returns the elementwise product with right-aligned broadcasting.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	return t.broadcastBinary("Mul", other, func(a, b float32) float32 { return a * b })
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor) MulScalar(s float32) *Tensor {
	out := t.Clone()
	data := out.AsFloat32()
	for i := range data {
		data[i] *= s
	}
	return out
}

func (t *Tensor) broadcastBinary(op string, other *Tensor, f func(a, b float32) float32) *Tensor {
	sameDevice(op, t, other)
	if len(other.shape) > len(t.shape) {
		panic(fmt.Sprintf("%s: cannot broadcast %v onto %v", op, other.shape, t.shape))
	}
	// Right-align the operand shape and validate each dimension.
	offset := len(t.shape) - len(other.shape)
	for i, dim := range other.shape {
		if dim != 1 && dim != t.shape[offset+i] {
			panic(fmt.Sprintf("%s: shapes not broadcastable: %v and %v", op, t.shape, other.shape))
		}
	}

	out := MustNew(t.shape, Float32, t.device)
	a := t.AsFloat32()
	b := other.AsFloat32()
	dst := out.AsFloat32()

	bStride := other.shape.ComputeStrides()
	idx := make([]int, len(t.shape))
	for i := range dst {
		bOff := 0
		for d := offset; d < len(t.shape); d++ {
			bd := other.shape[d-offset]
			if bd != 1 {
				bOff += idx[d] * bStride[d-offset]
			}
		}
		dst[i] = f(a[i], b[bOff])
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < t.shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

// Softmax computes a numerically stable softmax over the last dimension.
func (t *Tensor) Softmax() *Tensor {
	out := t.Clone()
	data := out.AsFloat32()
	width := t.shape[len(t.shape)-1]
	for row := 0; row < len(data); row += width {
		softmaxRow(data[row : row+width])
	}
	return out
}

func softmaxRow(row []float32) {
	maxVal := float32(math.Inf(-1))
	for _, v := range row {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for i, v := range row {
		if math.IsInf(float64(v), -1) {
			row[i] = 0
			continue
		}
		row[i] = float32(math.Exp(float64(v - maxVal)))
		sum += row[i]
	}
	if sum > 0 {
		for i := range row {
			row[i] /= sum
		}
	}
}

// Cat concatenates float32 tensors along the given dimension. All tensors
// must agree on every other dimension.
func Cat(tensors []*Tensor, dim int) *Tensor {
	if len(tensors) == 0 {
		panic("Cat: no tensors to concatenate")
	}
	first := tensors[0]
	outShape := first.shape.Clone()
	for _, t := range tensors[1:] {
		sameDevice("Cat", first, t)
		if len(t.shape) != len(outShape) {
			panic(fmt.Sprintf("Cat: rank mismatch: %v and %v", outShape, t.shape))
		}
		for d := range t.shape {
			if d == dim {
				continue
			}
			if t.shape[d] != outShape[d] {
				panic(fmt.Sprintf("Cat: shape mismatch on dim %d: %v and %v", d, outShape, t.shape))
			}
		}
		outShape[dim] += t.shape[dim]
	}

	out := MustNew(outShape, Float32, first.device)
	dst := out.AsFloat32()

	// Copy per outer block: everything before dim iterates, everything from
	// dim onward is contiguous per tensor.
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}
	inner := outShape.ComputeStrides()
	blockOut := outShape[dim] * inner[dim]
	for o := 0; o < outer; o++ {
		off := o * blockOut
		for _, t := range tensors {
			block := t.shape[dim] * inner[dim]
			src := t.AsFloat32()[o*block : (o+1)*block]
			copy(dst[off:off+block], src)
			off += block
		}
	}
	return out
}

// Narrow returns a copy of the tensor restricted to [start, start+length)
// along the given dimension.
func (t *Tensor) Narrow(dim, start, length int) *Tensor {
	if start < 0 || start+length > t.shape[dim] {
		panic(fmt.Sprintf("Narrow: range [%d, %d) out of bounds for dim %d of %v", start, start+length, dim, t.shape))
	}
	outShape := t.shape.Clone()
	outShape[dim] = length
	out := MustNew(outShape, t.dtype, t.device)

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= t.shape[d]
	}
	inner := t.stride[dim]
	if t.dtype == Int32 {
		src := t.AsInt32()
		dst := out.AsInt32()
		for o := 0; o < outer; o++ {
			copy(dst[o*length*inner:(o+1)*length*inner], src[(o*t.shape[dim]+start)*inner:(o*t.shape[dim]+start+length)*inner])
		}
		return out
	}
	src := t.AsFloat32()
	dst := out.AsFloat32()
	for o := 0; o < outer; o++ {
		copy(dst[o*length*inner:(o+1)*length*inner], src[(o*t.shape[dim]+start)*inner:(o*t.shape[dim]+start+length)*inner])
	}
	return out
}
