package tokenization

// RobertaConfig selects the sequence markers of a RoBERTa byte-level BPE
// tokenizer.
type RobertaConfig struct {
	BosPiece string
	EosPiece string
}

func DefaultRobertaConfig() RobertaConfig {
	return RobertaConfig{
		BosPiece: "<s>",
		EosPiece: "</s>",
	}
}

// NewRobertaTokenizer builds the RoBERTa pipeline: byte-level BPE splitting,
// <s>/</s> wrapping, and marker removal on decode. RoBERTa applies no text
// normalization before splitting.
func NewRobertaTokenizer(vocab *Vocab, merges [][2]string, config RobertaConfig) (*Tokenizer, error) {
	splitter := NewByteBPE(vocab, merges)
	postEncoder, err := NewBosEosPostEncoder(vocab, config.BosPiece, config.EosPiece)
	if err != nil {
		return nil, err
	}
	preDecoder := NewMarkerPreDecoder(postEncoder.BosID, postEncoder.EosID)
	return NewTokenizer(splitter, nil, postEncoder, preDecoder), nil
}

// NewRobertaTokenizerFromFiles loads a vocab.json and a line-oriented
// merges.txt and builds a RoBERTa tokenizer from them.
func NewRobertaTokenizerFromFiles(vocabPath, mergesPath string, config RobertaConfig) (*Tokenizer, error) {
	vocab, err := loadVocabJSONFile(vocabPath)
	if err != nil {
		return nil, err
	}
	merges, err := loadMergesFile(mergesPath)
	if err != nil {
		return nil, err
	}
	return NewRobertaTokenizer(vocab, merges, config)
}
