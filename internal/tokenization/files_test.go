package tokenization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVocabLines(t *testing.T) {
	vocab, err := LoadVocabLines(strings.NewReader("[PAD]\n[UNK]\nhello\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, vocab.Len())
	id, ok := vocab.PieceID("hello")
	require.True(t, ok)
	assert.Equal(t, int32(2), id)
	assert.Equal(t, "[UNK]", vocab.IDToPiece(1))
}

func TestLoadMerges_SkipsHeader(t *testing.T) {
	merges, err := LoadMerges(strings.NewReader("#version: 0.2\nh e\nl l\n"))
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"h", "e"}, {"l", "l"}}, merges)
}

func TestLoadMerges_InvalidRule(t *testing.T) {
	_, err := LoadMerges(strings.NewReader("h e x\n"))
	require.Error(t, err)
}

func TestLoadVocabJSON(t *testing.T) {
	vocab, err := LoadVocabJSON(strings.NewReader(`{"a": 0, "b": 1, "ab": 2}`))
	require.NoError(t, err)

	assert.Equal(t, 3, vocab.Len())
	assert.Equal(t, "ab", vocab.IDToPiece(2))
}

func TestParseHFTokenizer(t *testing.T) {
	blob := `{
		"model": {
			"type": "BPE",
			"vocab": {"a": 2, "b": 3, "ab": 4},
			"merges": ["a b"]
		},
		"added_tokens": [
			{"id": 0, "content": "<s>", "special": true},
			{"id": 1, "content": "</s>", "special": true}
		]
	}`

	parsed, err := ParseHFTokenizer([]byte(blob))
	require.NoError(t, err)

	assert.Equal(t, "<s>", parsed.BosPiece)
	assert.Equal(t, "</s>", parsed.EosPiece)
	assert.Equal(t, [][2]string{{"a", "b"}}, parsed.Merges)
	assert.Equal(t, 5, parsed.Vocab.Len())

	id, ok := parsed.Vocab.PieceID("ab")
	require.True(t, ok)
	assert.Equal(t, int32(4), id)
}

func TestRobertaTokenizer_FromHFMatchesFromParts(t *testing.T) {
	blob := `{
		"model": {
			"type": "BPE",
			"vocab": {
				"h": 2, "e": 3, "l": 4, "o": 5, "Ġ": 6, "w": 7, "r": 8, "d": 9,
				"he": 10, "ll": 11, "hell": 12, "hello": 13, "Ġw": 14
			},
			"merges": ["h e", "l l", "he ll", "hell o", "Ġ w"]
		},
		"added_tokens": [
			{"id": 0, "content": "<s>", "special": true},
			{"id": 1, "content": "</s>", "special": true}
		]
	}`
	fromHF, err := NewRobertaTokenizerFromHF([]byte(blob))
	require.NoError(t, err)

	vocab, merges := toyBPEVocab()
	fromParts, err := NewRobertaTokenizer(vocab, merges, DefaultRobertaConfig())
	require.NoError(t, err)

	// Both construction paths must encode identically given the same data.
	want := fromParts.Encode([]string{"hello world"})
	got := fromHF.Encode([]string{"hello world"})
	assert.Equal(t, want.IDs, got.IDs)
	assert.Equal(t, want.Pieces, got.Pieces)
	assert.Equal(t, want.Lens, got.Lens)
}

func TestParseHFTokenizer_UnsupportedModel(t *testing.T) {
	_, err := ParseHFTokenizer([]byte(`{"model": {"type": "Unigram"}}`))
	require.Error(t, err)
}
