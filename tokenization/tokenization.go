// Package tokenization provides the public API for the tokenizer pipelines:
// WordPiece tokenizers for the BERT family and byte-level BPE tokenizers
// for the RoBERTa and GPT-NeoX families.
//
//	tok, _ := tokenization.NewBertTokenizerFromFile("vocab.txt", tokenization.DefaultBertConfig())
//	pieces := tok.Encode([]string{"Hello world!"})
//	ids := pieces.PaddedTensor(0, tensor.CPU)
package tokenization

import (
	"github.com/KennethEnevoldsen/curated-transformers/internal/tokenization"
)

// Tokenizer turns texts into piece ids and back.
type Tokenizer = tokenization.Tokenizer

// PiecesWithIds is the result of encoding a batch of texts.
type PiecesWithIds = tokenization.PiecesWithIds

// Vocab maps pieces to ids and back.
type Vocab = tokenization.Vocab

// VocabularyError reports a piece missing from a vocabulary.
type VocabularyError = tokenization.VocabularyError

// NewVocab builds a vocabulary from pieces in id order.
func NewVocab(pieces []string) *Vocab {
	return tokenization.NewVocab(pieces)
}

// BertConfig configures a BERT WordPiece tokenizer.
type BertConfig = tokenization.BertConfig

// DefaultBertConfig matches the uncased BERT models.
func DefaultBertConfig() BertConfig {
	return tokenization.DefaultBertConfig()
}

// NewBertTokenizer builds a BERT tokenizer from a loaded vocabulary.
func NewBertTokenizer(vocab *Vocab, config BertConfig) (*Tokenizer, error) {
	return tokenization.NewBertTokenizer(vocab, config)
}

// NewBertTokenizerFromFile builds a BERT tokenizer from a vocab.txt file.
func NewBertTokenizerFromFile(vocabPath string, config BertConfig) (*Tokenizer, error) {
	return tokenization.NewBertTokenizerFromFile(vocabPath, config)
}

// RobertaConfig configures a RoBERTa byte-level BPE tokenizer.
type RobertaConfig = tokenization.RobertaConfig

// DefaultRobertaConfig matches the roberta-base models.
func DefaultRobertaConfig() RobertaConfig {
	return tokenization.DefaultRobertaConfig()
}

// NewRobertaTokenizer builds a RoBERTa tokenizer from a loaded vocabulary
// and merge list.
func NewRobertaTokenizer(vocab *Vocab, merges [][2]string, config RobertaConfig) (*Tokenizer, error) {
	return tokenization.NewRobertaTokenizer(vocab, merges, config)
}

// NewRobertaTokenizerFromFiles builds a RoBERTa tokenizer from vocab.json
// and merges.txt files.
func NewRobertaTokenizerFromFiles(vocabPath, mergesPath string, config RobertaConfig) (*Tokenizer, error) {
	return tokenization.NewRobertaTokenizerFromFiles(vocabPath, mergesPath, config)
}

// NewRobertaTokenizerFromHF builds a RoBERTa tokenizer from the contents of
// a tokenizer.json file.
func NewRobertaTokenizerFromHF(data []byte) (*Tokenizer, error) {
	return tokenization.NewRobertaTokenizerFromHF(data)
}

// NewGPTNeoXTokenizer builds a GPT-NeoX tokenizer from a loaded vocabulary
// and merge list.
func NewGPTNeoXTokenizer(vocab *Vocab, merges [][2]string) *Tokenizer {
	return tokenization.NewGPTNeoXTokenizer(vocab, merges)
}

// NewGPTNeoXTokenizerFromFiles builds a GPT-NeoX tokenizer from vocab.json
// and merges.txt files.
func NewGPTNeoXTokenizerFromFiles(vocabPath, mergesPath string) (*Tokenizer, error) {
	return tokenization.NewGPTNeoXTokenizerFromFiles(vocabPath, mergesPath)
}

// NewGPTNeoXTokenizerFromHF builds a GPT-NeoX tokenizer from the contents
// of a tokenizer.json file.
func NewGPTNeoXTokenizerFromHF(data []byte) (*Tokenizer, error) {
	return tokenization.NewGPTNeoXTokenizerFromHF(data)
}

// TikToken wraps an OpenAI tiktoken encoding behind the same id types as
// the other tokenizers.
type TikToken = tokenization.TikToken

// NewTikToken builds a tokenizer for a named tiktoken encoding, e.g.
// "cl100k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenization.NewTikToken(encodingName)
}

// NewTikTokenForModel builds a tokenizer for a named OpenAI model.
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	return tokenization.NewTikTokenForModel(modelName)
}
