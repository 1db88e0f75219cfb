package tokenization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

func toyBertVocab() *Vocab {
	return NewVocab([]string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]",
		"I", "saw", "a", "g", "##ir", "##l", "with",
		"te", "##les", "##co", "##p", "##e", ".", "!",
	})
}

func toyBertTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewBertTokenizer(toyBertVocab(), BertConfig{
		UnkPiece:     "[UNK]",
		ClsPiece:     "[CLS]",
		SepPiece:     "[SEP]",
		Lowercase:    false,
		StripAccents: true,
	})
	require.NoError(t, err)
	return tok
}

func TestBertTokenizer_ToyVocab(t *testing.T) {
	tok := toyBertTokenizer(t)

	encoding := tok.Encode([]string{
		"I saw a girl with a telescope.",
		"with a q!",
	})

	assert.Equal(t, [][]int32{
		{2, 4, 5, 6, 7, 8, 9, 10, 6, 11, 12, 13, 14, 15, 16, 3},
		{2, 10, 6, 1, 17, 3},
	}, encoding.IDs)
	assert.Equal(t, [][]string{
		{"[CLS]", "I", "saw", "a", "g", "##ir", "##l", "with", "a", "te", "##les", "##co", "##p", "##e", ".", "[SEP]"},
		{"[CLS]", "with", "a", "[UNK]", "!", "[SEP]"},
	}, encoding.Pieces)
	assert.Equal(t, [][]int{
		{1, 1, 1, 1, 3, 1, 1, 5, 1, 1},
		{1, 1, 1, 1, 1, 1},
	}, encoding.Lens)

	// The piece count invariant holds per sequence.
	for i := range encoding.IDs {
		total := 0
		for _, l := range encoding.Lens[i] {
			total += l
		}
		assert.Len(t, encoding.IDs[i], total)
		assert.Len(t, encoding.Pieces[i], total)
	}

	decoded := tok.Decode(encoding.IDs)
	assert.Equal(t, []string{
		"I saw a girl with a telescope.",
		"with a [UNK]!",
	}, decoded)
}

func TestBertTokenizer_PaddedTensorAndMask(t *testing.T) {
	tok := toyBertTokenizer(t)
	encoding := tok.Encode([]string{
		"I saw a girl with a telescope.",
		"with a q!",
	})

	ids := encoding.PaddedTensor(0, tensor.CPU)
	require.Equal(t, tensor.Shape{2, 16}, ids.Shape())
	assert.Equal(t, []int32{
		2, 4, 5, 6, 7, 8, 9, 10, 6, 11, 12, 13, 14, 15, 16, 3,
		2, 10, 6, 1, 17, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}, ids.AsInt32())

	mask := encoding.AttentionMask(tensor.CPU)
	require.Equal(t, tensor.Shape{2, 16}, mask.Shape())
	data := mask.AsBool()
	for j := 0; j < 16; j++ {
		assert.True(t, data[j])
	}
	for j := 0; j < 16; j++ {
		assert.Equal(t, j < 6, data[16+j], "position %d", j)
	}
}

func TestPiecesWithIds_EmptySequencesPadToOneColumn(t *testing.T) {
	encoding := &PiecesWithIds{
		IDs:    [][]int32{{}, {}},
		Pieces: [][]string{{}, {}},
		Lens:   [][]int{{}, {}},
	}

	ids := encoding.PaddedTensor(7, tensor.CPU)
	require.Equal(t, tensor.Shape{2, 1}, ids.Shape())
	assert.Equal(t, []int32{7, 7}, ids.AsInt32())

	mask := encoding.AttentionMask(tensor.CPU)
	require.Equal(t, tensor.Shape{2, 1}, mask.Shape())
	assert.Equal(t, []bool{false, false}, mask.AsBool())
}

func TestWordPiece_MissingUnkPiece(t *testing.T) {
	_, err := NewWordPiece(NewVocab([]string{"a"}), "[UNK]")
	require.Error(t, err)

	var vocabErr *VocabularyError
	require.ErrorAs(t, err, &vocabErr)
	assert.Equal(t, "[UNK]", vocabErr.Piece)
}

func TestWordPiece_OOVDiscardsPartialMatch(t *testing.T) {
	vocab := NewVocab([]string{"[UNK]", "tele", "##s"})
	wp, err := NewWordPiece(vocab, "[UNK]")
	require.NoError(t, err)

	// "tele" matches as a prefix but "phone" has no continuation pieces, so
	// the whole word collapses to the unknown piece.
	pieces, ids := wp.Split("telephone")
	assert.Equal(t, [][]string{{"[UNK]"}}, pieces)
	assert.Equal(t, [][]int32{{0}}, ids)
}
