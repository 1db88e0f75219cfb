package tokenization

// PreEncoder transforms raw texts before piece splitting, e.g. punctuation
// isolation or lowercasing.
type PreEncoder interface {
	PreEncode(texts []string) []string
}

// PostEncoder transforms split pieces, e.g. by inserting special markers.
type PostEncoder interface {
	PostEncode(pieces *PiecesWithIds) *PiecesWithIds
}

// PreDecoder transforms piece ids before decoding, e.g. by removing special
// markers.
type PreDecoder interface {
	PreDecode(ids [][]int32) [][]int32
}

// Splitter converts a single pre-encoded text into pieces grouped per word
// and reconstructs text from pieces. Implementations are WordPiece and
// ByteBPE.
type Splitter interface {
	// Split returns the pieces and ids of a text, one inner slice per word.
	Split(text string) (pieces [][]string, ids [][]int32)

	// JoinPieces reconstructs a text from a flat piece sequence.
	JoinPieces(pieces []string) string

	// Vocab returns the piece vocabulary.
	Vocab() *Vocab
}

// Tokenizer runs the full encoding pipeline: pre-encoder (optional), piece
// splitter, post-encoder (optional). Decoding runs the pre-decoder
// (optional) and then joins pieces with the splitter's rules.
type Tokenizer struct {
	splitter    Splitter
	preEncoder  PreEncoder
	postEncoder PostEncoder
	preDecoder  PreDecoder
}

// NewTokenizer assembles a pipeline. Any stage except the splitter may be
// nil, in which case it is skipped.
func NewTokenizer(splitter Splitter, preEncoder PreEncoder, postEncoder PostEncoder, preDecoder PreDecoder) *Tokenizer {
	return &Tokenizer{
		splitter:    splitter,
		preEncoder:  preEncoder,
		postEncoder: postEncoder,
		preDecoder:  preDecoder,
	}
}

// Encode tokenizes a batch of texts.
func (t *Tokenizer) Encode(texts []string) *PiecesWithIds {
	if t.preEncoder != nil {
		texts = t.preEncoder.PreEncode(texts)
	}

	result := &PiecesWithIds{
		IDs:    make([][]int32, len(texts)),
		Pieces: make([][]string, len(texts)),
		Lens:   make([][]int, len(texts)),
	}
	for i, text := range texts {
		wordPieces, wordIDs := t.splitter.Split(text)
		ids := []int32{}
		pieces := []string{}
		lens := []int{}
		for w := range wordPieces {
			ids = append(ids, wordIDs[w]...)
			pieces = append(pieces, wordPieces[w]...)
			lens = append(lens, len(wordPieces[w]))
		}
		result.IDs[i] = ids
		result.Pieces[i] = pieces
		result.Lens[i] = lens
	}

	if t.postEncoder != nil {
		result = t.postEncoder.PostEncode(result)
	}
	return result
}

// Decode reconstructs texts from batches of piece ids.
func (t *Tokenizer) Decode(ids [][]int32) []string {
	if t.preDecoder != nil {
		ids = t.preDecoder.PreDecode(ids)
	}
	vocab := t.splitter.Vocab()
	texts := make([]string, len(ids))
	for i, seq := range ids {
		pieces := make([]string, len(seq))
		for j, id := range seq {
			pieces[j] = vocab.IDToPiece(id)
		}
		texts[i] = t.splitter.JoinPieces(pieces)
	}
	return texts
}

// Splitter returns the pipeline's piece splitter.
func (t *Tokenizer) Splitter() Splitter {
	return t.splitter
}

// PieceID resolves a piece through the splitter's vocabulary.
func (t *Tokenizer) PieceID(piece string) (int32, bool) {
	return t.splitter.Vocab().PieceID(piece)
}

// BosEosPostEncoder wraps every sequence in begin and end markers.
type BosEosPostEncoder struct {
	BosPiece string
	EosPiece string
	BosID    int32
	EosID    int32
}

// NewBosEosPostEncoder resolves the marker pieces against a vocabulary.
func NewBosEosPostEncoder(vocab *Vocab, bosPiece, eosPiece string) (*BosEosPostEncoder, error) {
	bosID, err := vocab.pieceIDOrFail(bosPiece)
	if err != nil {
		return nil, err
	}
	eosID, err := vocab.pieceIDOrFail(eosPiece)
	if err != nil {
		return nil, err
	}
	return &BosEosPostEncoder{
		BosPiece: bosPiece,
		EosPiece: eosPiece,
		BosID:    bosID,
		EosID:    eosID,
	}, nil
}

func (p *BosEosPostEncoder) PostEncode(pieces *PiecesWithIds) *PiecesWithIds {
	out := &PiecesWithIds{
		IDs:    make([][]int32, len(pieces.IDs)),
		Pieces: make([][]string, len(pieces.IDs)),
		Lens:   make([][]int, len(pieces.IDs)),
	}
	for i := range pieces.IDs {
		out.IDs[i] = append(append([]int32{p.BosID}, pieces.IDs[i]...), p.EosID)
		out.Pieces[i] = append(append([]string{p.BosPiece}, pieces.Pieces[i]...), p.EosPiece)
		out.Lens[i] = append(append([]int{1}, pieces.Lens[i]...), 1)
	}
	return out
}

// MarkerPreDecoder drops the given special ids wherever they occur.
type MarkerPreDecoder struct {
	markers map[int32]struct{}
}

func NewMarkerPreDecoder(ids ...int32) *MarkerPreDecoder {
	markers := make(map[int32]struct{}, len(ids))
	for _, id := range ids {
		markers[id] = struct{}{}
	}
	return &MarkerPreDecoder{markers: markers}
}

func (p *MarkerPreDecoder) PreDecode(ids [][]int32) [][]int32 {
	out := make([][]int32, len(ids))
	for i, seq := range ids {
		kept := make([]int32, 0, len(seq))
		for _, id := range seq {
			if _, ok := p.markers[id]; ok {
				continue
			}
			kept = append(kept, id)
		}
		out[i] = kept
	}
	return out
}
