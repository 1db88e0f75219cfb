// Package tokenization converts raw text into model-ready piece identifier
// sequences and back. A tokenizer is a pipeline of an optional pre-encoder
// (string normalization), a piece splitter (WordPiece or byte-level BPE), an
// optional post-encoder (special marker insertion), and an optional
// pre-decoder (marker removal before reconstruction).
package tokenization

import (
	"fmt"
)

// VocabularyError reports a special piece that is missing from a vocabulary
// at construction time.
type VocabularyError struct {
	Piece string
}

func (e *VocabularyError) Error() string {
	return fmt.Sprintf("piece vocabulary doesn't contain '%s' piece", e.Piece)
}

// Vocab is a bidirectional mapping between string pieces and dense integer
// ids. Ids are contiguous from 0 in insertion order.
type Vocab struct {
	pieces []string
	ids    map[string]int32
}

// NewVocab creates a vocabulary from an ordered piece list. The position of
// a piece defines its id.
func NewVocab(pieces []string) *Vocab {
	ids := make(map[string]int32, len(pieces))
	for i, piece := range pieces {
		ids[piece] = int32(i)
	}
	return &Vocab{
		pieces: append([]string(nil), pieces...),
		ids:    ids,
	}
}

// PieceID looks up the id of a piece.
func (v *Vocab) PieceID(piece string) (int32, bool) {
	id, ok := v.ids[piece]
	return id, ok
}

// IDToPiece looks up the piece for an id. Unknown ids yield "".
func (v *Vocab) IDToPiece(id int32) string {
	if id < 0 || int(id) >= len(v.pieces) {
		return ""
	}
	return v.pieces[id]
}

// Len returns the vocabulary size.
func (v *Vocab) Len() int {
	return len(v.pieces)
}

// pieceIDOrFail resolves a special piece, returning a VocabularyError when
// the piece is absent.
func (v *Vocab) pieceIDOrFail(piece string) (int32, error) {
	id, ok := v.PieceID(piece)
	if !ok {
		return 0, &VocabularyError{Piece: piece}
	}
	return id, nil
}
