package tokenization

import (
	"strings"
)

const continuationPrefix = "##"

// WordPiece splits whitespace-delimited words into subword pieces by greedy
// longest-prefix matching. Continuation pieces carry the "##" prefix. A word
// with no full segmentation encodes as the single unknown piece.
type WordPiece struct {
	vocab    *Vocab
	unkPiece string
	unkID    int32
}

// NewWordPiece creates a WordPiece splitter. The unknown piece must be
// present in the vocabulary.
func NewWordPiece(vocab *Vocab, unkPiece string) (*WordPiece, error) {
	unkID, err := vocab.pieceIDOrFail(unkPiece)
	if err != nil {
		return nil, err
	}
	return &WordPiece{
		vocab:    vocab,
		unkPiece: unkPiece,
		unkID:    unkID,
	}, nil
}

func (w *WordPiece) Vocab() *Vocab {
	return w.vocab
}

// Split segments each whitespace-delimited word of the text.
func (w *WordPiece) Split(text string) ([][]string, [][]int32) {
	var pieces [][]string
	var ids [][]int32
	for _, word := range strings.Fields(text) {
		wordPieces, wordIDs := w.splitWord(word)
		pieces = append(pieces, wordPieces)
		ids = append(ids, wordIDs)
	}
	return pieces, ids
}

// splitWord greedily takes the longest vocabulary prefix at every position.
// Any position without a match discards the partial segmentation and yields
// the unknown piece for the whole word.
func (w *WordPiece) splitWord(word string) ([]string, []int32) {
	runes := []rune(word)
	var pieces []string
	var ids []int32

	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = continuationPrefix + candidate
			}
			if id, ok := w.vocab.PieceID(candidate); ok {
				pieces = append(pieces, candidate)
				ids = append(ids, id)
				found = true
				break
			}
			end--
		}
		if !found {
			return []string{w.unkPiece}, []int32{w.unkID}
		}
		start = end
	}
	return pieces, ids
}

// JoinPieces reattaches continuation pieces and joins words with spaces,
// then removes the spaces the punctuation splitter introduced.
func (w *WordPiece) JoinPieces(pieces []string) string {
	var sb strings.Builder
	for i, piece := range pieces {
		if stripped, ok := strings.CutPrefix(piece, continuationPrefix); ok {
			sb.WriteString(stripped)
			continue
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(piece)
	}
	return cleanupSpaces(sb.String())
}

// cleanupSpaces undoes tokenization artifacts around punctuation and
// contractions, mirroring the reference decoder.
func cleanupSpaces(text string) string {
	replacer := strings.NewReplacer(
		" .", ".",
		" ?", "?",
		" !", "!",
		" ,", ",",
		" ' ", "'",
		" n't", "n't",
		" 'm", "'m",
		" 's", "'s",
		" 've", "'ve",
		" 're", "'re",
	)
	return replacer.Replace(text)
}
