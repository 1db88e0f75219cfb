package tokenization

// BertConfig selects the special pieces and normalization behavior of a
// BERT-style WordPiece tokenizer.
type BertConfig struct {
	UnkPiece     string
	ClsPiece     string
	SepPiece     string
	Lowercase    bool
	StripAccents bool
}

// DefaultBertConfig matches uncased BERT checkpoints.
func DefaultBertConfig() BertConfig {
	return BertConfig{
		UnkPiece:     "[UNK]",
		ClsPiece:     "[CLS]",
		SepPiece:     "[SEP]",
		Lowercase:    true,
		StripAccents: true,
	}
}

// NewBertTokenizer builds the BERT pipeline: normalization pre-encoder,
// WordPiece splitter, [CLS]/[SEP] wrapping, and marker removal on decode.
func NewBertTokenizer(vocab *Vocab, config BertConfig) (*Tokenizer, error) {
	splitter, err := NewWordPiece(vocab, config.UnkPiece)
	if err != nil {
		return nil, err
	}
	postEncoder, err := NewBosEosPostEncoder(vocab, config.ClsPiece, config.SepPiece)
	if err != nil {
		return nil, err
	}
	preEncoder := &BertPreEncoder{
		Lowercase:    config.Lowercase,
		StripAccents: config.StripAccents,
	}
	preDecoder := NewMarkerPreDecoder(postEncoder.BosID, postEncoder.EosID)
	return NewTokenizer(splitter, preEncoder, postEncoder, preDecoder), nil
}

// NewBertTokenizerFromFile loads a line-oriented vocabulary (vocab.txt) and
// builds a BERT tokenizer from it.
func NewBertTokenizerFromFile(vocabPath string, config BertConfig) (*Tokenizer, error) {
	vocab, err := loadVocabLinesFile(vocabPath)
	if err != nil {
		return nil, err
	}
	return NewBertTokenizer(vocab, config)
}
