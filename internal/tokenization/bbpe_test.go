package tokenization

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toyBPEVocab() (*Vocab, [][2]string) {
	vocab := NewVocab([]string{
		"<s>", "</s>",
		"h", "e", "l", "o", "Ġ", "w", "r", "d",
		"he", "ll", "hell", "hello", "Ġw",
	})
	merges := [][2]string{
		{"h", "e"},
		{"l", "l"},
		{"he", "ll"},
		{"hell", "o"},
		{"Ġ", "w"},
	}
	return vocab, merges
}

func TestByteBPE_MergeOrder(t *testing.T) {
	vocab, merges := toyBPEVocab()
	bpe := NewByteBPE(vocab, merges)

	pieces, ids := bpe.Split("hello world")
	assert.Equal(t, [][]string{
		{"hello"},
		{"Ġw", "o", "r", "l", "d"},
	}, pieces)
	assert.Equal(t, [][]int32{
		{13},
		{14, 5, 8, 4, 9},
	}, ids)
}

func TestByteBPE_SpaceMapsToGRune(t *testing.T) {
	// The GPT-2 byte encoder relocates 0x20 to U+0120.
	assert.Equal(t, rune(0x120), byteToRune[' '])
	assert.Equal(t, byte(' '), runeToByte[rune(0x120)])

	// Printable bytes map to themselves.
	assert.Equal(t, rune('!'), byteToRune['!'])
	assert.Equal(t, rune('~'), byteToRune['~'])
}

func TestByteBPE_JoinPiecesRestoresBytes(t *testing.T) {
	vocab, merges := toyBPEVocab()
	bpe := NewByteBPE(vocab, merges)

	assert.Equal(t, "hello world", bpe.JoinPieces([]string{"hello", "Ġw", "o", "r", "l", "d"}))
}

func TestByteBPE_PretokenizerContractions(t *testing.T) {
	bpe := NewByteBPE(NewVocab(nil), nil)

	var chunks []string
	m, _ := bpe.pretokenizer.FindStringMatch("I'm here")
	for m != nil {
		chunks = append(chunks, m.String())
		m, _ = bpe.pretokenizer.FindNextMatch(m)
	}
	assert.Equal(t, []string{"I", "'m", " here"}, chunks)
}

func TestRobertaTokenizer_RoundTrip(t *testing.T) {
	vocab, merges := toyBPEVocab()
	tok, err := NewRobertaTokenizer(vocab, merges, DefaultRobertaConfig())
	require.NoError(t, err)

	encoding := tok.Encode([]string{"hello world"})
	assert.Equal(t, [][]int32{{0, 13, 14, 5, 8, 4, 9, 1}}, encoding.IDs)
	assert.Equal(t, [][]int{{1, 1, 5, 1}}, encoding.Lens)

	decoded := tok.Decode(encoding.IDs)
	assert.Equal(t, []string{"hello world"}, decoded)
}

func TestRobertaTokenizer_BatchEncoding(t *testing.T) {
	vocab, merges := toyBPEVocab()
	tok, err := NewRobertaTokenizer(vocab, merges, DefaultRobertaConfig())
	require.NoError(t, err)

	got := tok.Encode([]string{"hello", "hello world"})
	want := &PiecesWithIds{
		IDs: [][]int32{
			{0, 13, 1},
			{0, 13, 14, 5, 8, 4, 9, 1},
		},
		Pieces: [][]string{
			{"<s>", "hello", "</s>"},
			{"<s>", "hello", "Ġw", "o", "r", "l", "d", "</s>"},
		},
		Lens: [][]int{
			{1, 1, 1},
			{1, 1, 5, 1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("encoding mismatch (-want +got):\n%s", diff)
	}
}

func TestRobertaTokenizer_MissingMarkers(t *testing.T) {
	vocab := NewVocab([]string{"h"})
	_, err := NewRobertaTokenizer(vocab, nil, DefaultRobertaConfig())

	var vocabErr *VocabularyError
	require.ErrorAs(t, err, &vocabErr)
	assert.Equal(t, "<s>", vocabErr.Piece)
}

func TestGPTNeoXTokenizer_NoMarkers(t *testing.T) {
	vocab, merges := toyBPEVocab()
	tok := NewGPTNeoXTokenizer(vocab, merges)

	encoding := tok.Encode([]string{"hello world"})
	assert.Equal(t, [][]int32{{13, 14, 5, 8, 4, 9}}, encoding.IDs)

	decoded := tok.Decode(encoding.IDs)
	assert.Equal(t, []string{"hello world"}, decoded)
}
