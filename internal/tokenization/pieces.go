package tokenization

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// PiecesWithIds is the result of encoding a batch of texts. It is created
// once per Encode call and not modified afterwards.
//
// For every batch element i, len(IDs[i]) == len(Pieces[i]) == sum(Lens[i]).
// Lens groups piece counts per input word (special markers count as one
// word each).
type PiecesWithIds struct {
	IDs    [][]int32
	Pieces [][]string
	Lens   [][]int
}

// PaddedTensor returns the ids as an int32 tensor of shape
// [batch, max sequence length], right-padded with padID. The width is
// floored at one because tensors cannot have a zero dimension, so a batch
// of all-empty sequences yields a single all-padding column.
func (p *PiecesWithIds) PaddedTensor(padID int32, device tensor.Device) *tensor.Tensor {
	maxLen := p.maxLen()
	out := tensor.MustNew(tensor.Shape{len(p.IDs), maxLen}, tensor.Int32, device)
	data := out.AsInt32()
	for i := range data {
		data[i] = padID
	}
	for i, ids := range p.IDs {
		copy(data[i*maxLen:], ids)
	}
	return out
}

// AttentionMask returns a bool tensor of shape [batch, max sequence length]
// that is true exactly at positions holding real tokens. Like PaddedTensor,
// the width is floored at one.
func (p *PiecesWithIds) AttentionMask(device tensor.Device) *tensor.Tensor {
	maxLen := p.maxLen()
	out := tensor.MustNew(tensor.Shape{len(p.IDs), maxLen}, tensor.Bool, device)
	data := out.AsBool()
	for i, ids := range p.IDs {
		for j := range ids {
			data[i*maxLen+j] = true
		}
	}
	return out
}

// maxLen floors at one so PaddedTensor and AttentionMask always produce
// valid tensor shapes.
func (p *PiecesWithIds) maxLen() int {
	maxLen := 1
	for _, ids := range p.IDs {
		if len(ids) > maxLen {
			maxLen = len(ids)
		}
	}
	return maxLen
}
