package tokenization

import (
	"encoding/json"
	"fmt"
	"strings"
)

// hfTokenizerFile is the subset of a HuggingFace tokenizer.json needed to
// reconstruct a byte-level BPE tokenizer.
type hfTokenizerFile struct {
	Model struct {
		Type   string         `json:"type"`
		Vocab  map[string]int `json:"vocab"`
		Merges []string       `json:"merges"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
}

// HFTokenizerData is a deserialized tokenizer.json: a dense vocabulary, an
// ordered merge table, and the special pieces declared by the file.
type HFTokenizerData struct {
	Vocab    *Vocab
	Merges   [][2]string
	BosPiece string
	EosPiece string
	UnkPiece string
}

// ParseHFTokenizer deserializes the BPE model of a HuggingFace
// tokenizer.json blob. Special pieces are recognized from added_tokens by
// their conventional names.
func ParseHFTokenizer(data []byte) (*HFTokenizerData, error) {
	var file hfTokenizerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}
	if file.Model.Type != "" && file.Model.Type != "BPE" {
		return nil, fmt.Errorf("unsupported tokenizer model type %q", file.Model.Type)
	}

	idMap := make(map[string]int, len(file.Model.Vocab)+len(file.AddedTokens))
	for piece, id := range file.Model.Vocab {
		idMap[piece] = id
	}
	for _, added := range file.AddedTokens {
		idMap[added.Content] = added.ID
	}

	merges := make([][2]string, 0, len(file.Model.Merges))
	for _, rule := range file.Model.Merges {
		parts := strings.Fields(rule)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid merge rule %q", rule)
		}
		merges = append(merges, [2]string{parts[0], parts[1]})
	}

	result := &HFTokenizerData{
		Vocab:  vocabFromIDMap(idMap),
		Merges: merges,
	}
	for _, added := range file.AddedTokens {
		if !added.Special {
			continue
		}
		content := strings.ToLower(added.Content)
		switch {
		case content == "<s>" || strings.Contains(content, "bos"):
			result.BosPiece = added.Content
		case content == "</s>" || strings.Contains(content, "eos") || strings.Contains(content, "endoftext"):
			result.EosPiece = added.Content
		case strings.Contains(content, "unk"):
			result.UnkPiece = added.Content
		}
	}
	return result, nil
}

// NewRobertaTokenizerFromHF builds a RoBERTa tokenizer from a tokenizer.json
// blob, preferring the file's declared markers over the defaults.
func NewRobertaTokenizerFromHF(data []byte) (*Tokenizer, error) {
	parsed, err := ParseHFTokenizer(data)
	if err != nil {
		return nil, err
	}
	config := DefaultRobertaConfig()
	if parsed.BosPiece != "" {
		config.BosPiece = parsed.BosPiece
	}
	if parsed.EosPiece != "" {
		config.EosPiece = parsed.EosPiece
	}
	return NewRobertaTokenizer(parsed.Vocab, parsed.Merges, config)
}

// NewGPTNeoXTokenizerFromHF builds a GPT-NeoX tokenizer from a
// tokenizer.json blob.
func NewGPTNeoXTokenizerFromHF(data []byte) (*Tokenizer, error) {
	parsed, err := ParseHFTokenizer(data)
	if err != nil {
		return nil, err
	}
	return NewGPTNeoXTokenizer(parsed.Vocab, parsed.Merges), nil
}
