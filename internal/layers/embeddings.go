package layers

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// TransformerEmbeddings turns piece ids into the initial hidden states:
// word embeddings plus optional learned positions and segment embeddings,
// followed by an optional normalization.
type TransformerEmbeddings struct {
	word      *Embedding
	position  *Embedding
	tokenType *Embedding
	norm      Normalizer

	// positionOffset shifts learned position ids; RoBERTa reserves the
	// first positions for padding and starts real tokens at 2.
	positionOffset int
}

func NewTransformerEmbeddings(word, position, tokenType *Embedding, norm Normalizer, positionOffset int) *TransformerEmbeddings {
	return &TransformerEmbeddings{
		word:           word,
		position:       position,
		tokenType:      tokenType,
		norm:           norm,
		positionOffset: positionOffset,
	}
}

// Forward embeds ids of shape [batch, seq]. mask is an optional bool tensor
// [batch, seq]; learned position ids count only non-padding tokens, so
// padded batches get the same positions as their unpadded equivalents.
// cacheLen shifts positions for cached decoding. typeIDs may be nil, in
// which case segment 0 is used throughout.
func (e *TransformerEmbeddings) Forward(ids, mask, typeIDs *tensor.Tensor, cacheLen int) *tensor.Tensor {
	hidden := e.word.Forward(ids)

	if e.position != nil {
		positions := e.positionIDs(ids.Shape(), mask, cacheLen, ids.Device())
		hidden = hidden.Add(e.position.Forward(positions))
	}
	if e.tokenType != nil {
		if typeIDs == nil {
			typeIDs = tensor.MustNew(ids.Shape(), tensor.Int32, ids.Device())
		}
		hidden = hidden.Add(e.tokenType.Forward(typeIDs))
	}
	if e.norm != nil {
		hidden = e.norm.Forward(hidden)
	}
	return hidden
}

func (e *TransformerEmbeddings) positionIDs(shape tensor.Shape, mask *tensor.Tensor, cacheLen int, device tensor.Device) *tensor.Tensor {
	batch, seq := shape[0], shape[1]
	positions := tensor.MustNew(tensor.Shape{batch, seq}, tensor.Int32, device)
	data := positions.AsInt32()

	var maskData []bool
	if mask != nil {
		maskData = mask.AsBool()
	}
	for b := 0; b < batch; b++ {
		count := cacheLen
		for s := 0; s < seq; s++ {
			if maskData != nil && !maskData[b*seq+s] {
				data[b*seq+s] = int32(e.positionOffset)
				continue
			}
			data[b*seq+s] = int32(e.positionOffset + count)
			count++
		}
	}
	return positions
}
