// Package kvcache stores per-layer attention keys and values across
// decoding steps. Buffers are preallocated to a fixed capacity and filled
// append-only; the logical sequence length tracks how much of each buffer
// is valid.
package kvcache

import (
	"fmt"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// LayerCache holds the key and value buffers of one attention layer, shaped
// [batch, heads, capacity, headDim].
type LayerCache struct {
	key      *tensor.Tensor
	value    *tensor.Tensor
	length   int
	capacity int
}

// Cache holds one LayerCache per transformer layer. All layers share the
// batch size, head geometry and capacity.
type Cache struct {
	layers   []*LayerCache
	batch    int
	heads    int
	headDim  int
	capacity int
}

// New preallocates a cache for the given geometry.
func New(layers, batch, heads, headDim, capacity int, device tensor.Device) *Cache {
	c := &Cache{
		layers:   make([]*LayerCache, layers),
		batch:    batch,
		heads:    heads,
		headDim:  headDim,
		capacity: capacity,
	}
	shape := tensor.Shape{batch, heads, capacity, headDim}
	for i := range c.layers {
		c.layers[i] = &LayerCache{
			key:      tensor.Zeros(shape, device),
			value:    tensor.Zeros(shape, device),
			capacity: capacity,
		}
	}
	return c
}

// Layers returns the number of per-layer caches.
func (c *Cache) Layers() int {
	return len(c.layers)
}

// Batch returns the batch size the cache was allocated for.
func (c *Cache) Batch() int {
	return c.batch
}

// Heads returns the number of attention heads per layer.
func (c *Cache) Heads() int {
	return c.heads
}

// HeadDim returns the per-head width.
func (c *Cache) HeadDim() int {
	return c.headDim
}

// Capacity returns the maximum sequence length the buffers can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Length returns the logical sequence length. Layers advance in lockstep
// during a forward pass, so the first layer is authoritative.
func (c *Cache) Length() int {
	if len(c.layers) == 0 {
		return 0
	}
	return c.layers[0].length
}

// Layer returns the cache of a single transformer layer.
func (c *Cache) Layer(i int) *LayerCache {
	return c.layers[i]
}

// Length returns the layer's logical sequence length.
func (lc *LayerCache) Length() int {
	return lc.length
}

// Append copies new key and value states, shaped [batch, heads, n, headDim],
// behind the current logical length and advances it by n.
func (lc *LayerCache) Append(key, value *tensor.Tensor) error {
	shape := key.Shape()
	if !shape.Equal(value.Shape()) {
		return fmt.Errorf("key shape %v does not match value shape %v", shape, value.Shape())
	}
	if len(shape) != 4 {
		return fmt.Errorf("expected [batch, heads, seq, headDim] states, got %v", shape)
	}
	bufShape := lc.key.Shape()
	if shape[0] != bufShape[0] || shape[1] != bufShape[1] || shape[3] != bufShape[3] {
		return fmt.Errorf("states %v do not fit cache buffers %v", shape, bufShape)
	}
	n := shape[2]
	if lc.length+n > lc.capacity {
		return fmt.Errorf("cache capacity %d exceeded: length %d + %d new positions", lc.capacity, lc.length, n)
	}

	batch, heads, headDim := shape[0], shape[1], shape[3]
	lc.copyStates(lc.key.AsFloat32(), key.AsFloat32(), batch, heads, n, headDim)
	lc.copyStates(lc.value.AsFloat32(), value.AsFloat32(), batch, heads, n, headDim)
	lc.length += n
	return nil
}

func (lc *LayerCache) copyStates(dst, src []float32, batch, heads, n, headDim int) {
	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			dstOff := ((b*heads+h)*lc.capacity + lc.length) * headDim
			srcOff := (b*heads + h) * n * headDim
			copy(dst[dstOff:dstOff+n*headDim], src[srcOff:srcOff+n*headDim])
		}
	}
}

// Key returns the valid prefix of the key buffer, shaped
// [batch, heads, length, headDim].
func (lc *LayerCache) Key() *tensor.Tensor {
	return lc.key.Narrow(2, 0, lc.length)
}

// Value returns the valid prefix of the value buffer.
func (lc *LayerCache) Value() *tensor.Tensor {
	return lc.value.Narrow(2, 0, lc.length)
}
