package tokenization

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// gpt2Pattern is the GPT-2 pre-tokenization pattern. The \s+(?!\S)
// alternative needs a negative lookahead, which the standard regexp package
// does not support.
const gpt2Pattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// byteToRune maps every byte to a printable rune. Printable Latin-1 bytes
// map to themselves, the rest are relocated to a contiguous range starting
// at U+0100, matching the GPT-2 byte encoder.
var byteToRune, runeToByte = buildByteTable()

func buildByteTable() ([256]rune, map[rune]byte) {
	var toRune [256]rune
	toByte := make(map[rune]byte, 256)
	relocated := 0
	for b := 0; b < 256; b++ {
		r := rune(b)
		printable := (r >= '!' && r <= '~') || (r >= '¡' && r <= '¬') || (r >= '®' && r <= 'ÿ')
		if !printable {
			r = rune(256 + relocated)
			relocated++
		}
		toRune[b] = r
		toByte[r] = byte(b)
	}
	return toRune, toByte
}

type mergePair struct {
	left  string
	right string
}

// ByteBPE is a byte-level byte-pair-encoding splitter as used by GPT-2,
// RoBERTa and GPT-NeoX. Text is chunked with the GPT-2 pre-tokenization
// pattern, each chunk is mapped through the byte encoder and merged
// bottom-up following the merge table ranks.
type ByteBPE struct {
	vocab        *Vocab
	ranks        map[mergePair]int
	pretokenizer *regexp2.Regexp
}

// NewByteBPE creates a splitter from a vocabulary and an ordered merge
// list. Earlier merges have higher priority.
func NewByteBPE(vocab *Vocab, merges [][2]string) *ByteBPE {
	ranks := make(map[mergePair]int, len(merges))
	for i, m := range merges {
		ranks[mergePair{left: m[0], right: m[1]}] = i
	}
	return &ByteBPE{
		vocab:        vocab,
		ranks:        ranks,
		pretokenizer: regexp2.MustCompile(gpt2Pattern, regexp2.None),
	}
}

func (b *ByteBPE) Vocab() *Vocab {
	return b.vocab
}

// Split chunks the text with the pre-tokenization pattern and encodes each
// chunk separately. One inner slice per chunk.
func (b *ByteBPE) Split(text string) ([][]string, [][]int32) {
	var pieces [][]string
	var ids [][]int32
	m, _ := b.pretokenizer.FindStringMatch(text)
	for m != nil {
		chunkPieces, chunkIDs := b.encodeChunk(m.String())
		if len(chunkPieces) > 0 {
			pieces = append(pieces, chunkPieces)
			ids = append(ids, chunkIDs)
		}
		m, _ = b.pretokenizer.FindNextMatch(m)
	}
	return pieces, ids
}

func (b *ByteBPE) encodeChunk(chunk string) ([]string, []int32) {
	var sb strings.Builder
	sb.Grow(len(chunk) * 2)
	for i := 0; i < len(chunk); i++ {
		sb.WriteRune(byteToRune[chunk[i]])
	}
	encoded := sb.String()

	if id, ok := b.vocab.PieceID(encoded); ok {
		return []string{encoded}, []int32{id}
	}

	parts := make([]string, 0, len(encoded))
	for _, r := range encoded {
		parts = append(parts, string(r))
	}

	// Repeatedly merge the adjacent pair with the lowest rank.
	for len(parts) > 1 {
		bestRank := len(b.ranks) + 1
		bestIdx := -1
		for i := 0; i < len(parts)-1; i++ {
			if rank, ok := b.ranks[mergePair{left: parts[i], right: parts[i+1]}]; ok && rank < bestRank {
				bestRank = rank
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		parts[bestIdx] += parts[bestIdx+1]
		parts = append(parts[:bestIdx+1], parts[bestIdx+2:]...)
	}

	var pieces []string
	var ids []int32
	for _, part := range parts {
		if id, ok := b.vocab.PieceID(part); ok {
			pieces = append(pieces, part)
			ids = append(ids, id)
		}
	}
	return pieces, ids
}

// JoinPieces concatenates pieces and maps the byte-encoder runes back to
// raw bytes.
func (b *ByteBPE) JoinPieces(pieces []string) string {
	var buf []byte
	for _, piece := range pieces {
		for _, r := range piece {
			if raw, ok := runeToByte[r]; ok {
				buf = append(buf, raw)
				continue
			}
			buf = append(buf, []byte(string(r))...)
		}
	}
	return string(buf)
}
