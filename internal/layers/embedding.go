package layers

import (
	"fmt"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// Embedding looks up dense vectors by id. The weight has shape
// [numEmbeddings, dim].
type Embedding struct {
	weight *tensor.Tensor
}

func NewEmbedding(weight *tensor.Tensor) *Embedding {
	if len(weight.Shape()) != 2 {
		panic(fmt.Sprintf("Embedding: expected 2-D weight, got %v", weight.Shape()))
	}
	return &Embedding{weight: weight}
}

// NumEmbeddings returns the size of the lookup table.
func (e *Embedding) NumEmbeddings() int {
	return e.weight.Shape()[0]
}

// Dim returns the embedding width.
func (e *Embedding) Dim() int {
	return e.weight.Shape()[1]
}

// Weight returns the underlying table, e.g. for tied output projections.
func (e *Embedding) Weight() *tensor.Tensor {
	return e.weight
}

// Forward gathers embeddings for an int32 id tensor of shape [batch, seq],
// returning [batch, seq, dim].
func (e *Embedding) Forward(ids *tensor.Tensor) *tensor.Tensor {
	shape := ids.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Embedding.Forward: expected [batch, seq] ids, got %v", shape))
	}
	batch, seq := shape[0], shape[1]
	dim := e.Dim()

	out := tensor.Zeros(tensor.Shape{batch, seq, dim}, ids.Device())
	dst := out.AsFloat32()
	table := e.weight.AsFloat32()
	for i, id := range ids.AsInt32() {
		if id < 0 || int(id) >= e.NumEmbeddings() {
			panic(fmt.Sprintf("Embedding.Forward: id %d out of range [0, %d)", id, e.NumEmbeddings()))
		}
		copy(dst[i*dim:(i+1)*dim], table[int(id)*dim:(int(id)+1)*dim])
	}
	return out
}
