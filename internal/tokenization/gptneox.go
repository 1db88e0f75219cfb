package tokenization

// NewGPTNeoXTokenizer builds the GPT-NeoX pipeline. GPT-NeoX uses plain
// byte-level BPE without normalization or sequence markers.
func NewGPTNeoXTokenizer(vocab *Vocab, merges [][2]string) *Tokenizer {
	return NewTokenizer(NewByteBPE(vocab, merges), nil, nil, nil)
}

// NewGPTNeoXTokenizerFromFiles loads a vocab.json and a line-oriented
// merges.txt and builds a GPT-NeoX tokenizer from them.
func NewGPTNeoXTokenizerFromFiles(vocabPath, mergesPath string) (*Tokenizer, error) {
	vocab, err := loadVocabJSONFile(vocabPath)
	if err != nil {
		return nil, err
	}
	merges, err := loadMergesFile(mergesPath)
	if err != nil {
		return nil, err
	}
	return NewGPTNeoXTokenizer(vocab, merges), nil
}
