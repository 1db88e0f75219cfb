package bert

import (
	"fmt"

	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// Encoder is a BERT model built from a loaded checkpoint.
type Encoder struct {
	config     *Config
	embeddings *layers.TransformerEmbeddings
	blocks     []*layers.TransformerLayer
}

// New builds the encoder from a state dict using the upstream BERT
// parameter names.
func New(config *Config, params models.StateDict) (*Encoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	word, err := params.Embedding("embeddings.word_embeddings.weight")
	if err != nil {
		return nil, err
	}
	position, err := params.Embedding("embeddings.position_embeddings.weight")
	if err != nil {
		return nil, err
	}
	tokenType, err := params.Embedding("embeddings.token_type_embeddings.weight")
	if err != nil {
		return nil, err
	}
	embNorm, err := params.LayerNorm("embeddings.LayerNorm.weight", "embeddings.LayerNorm.bias", config.LayerNormEps)
	if err != nil {
		return nil, err
	}

	blocks := make([]*layers.TransformerLayer, config.NumLayers)
	for i := range blocks {
		if blocks[i], err = buildLayer(config, params, i); err != nil {
			return nil, err
		}
	}

	return &Encoder{
		config:     config,
		embeddings: layers.NewTransformerEmbeddings(word, position, tokenType, embNorm, 0),
		blocks:     blocks,
	}, nil
}

func buildLayer(config *Config, params models.StateDict, i int) (*layers.TransformerLayer, error) {
	prefix := fmt.Sprintf("encoder.layer.%d", i)
	name := func(suffix string) string { return prefix + "." + suffix }

	query, err := params.Linear(name("attention.self.query.weight"), name("attention.self.query.bias"))
	if err != nil {
		return nil, err
	}
	key, err := params.Linear(name("attention.self.key.weight"), name("attention.self.key.bias"))
	if err != nil {
		return nil, err
	}
	value, err := params.Linear(name("attention.self.value.weight"), name("attention.self.value.bias"))
	if err != nil {
		return nil, err
	}
	attnOut, err := params.Linear(name("attention.output.dense.weight"), name("attention.output.dense.bias"))
	if err != nil {
		return nil, err
	}
	attnNorm, err := params.LayerNorm(name("attention.output.LayerNorm.weight"), name("attention.output.LayerNorm.bias"), config.LayerNormEps)
	if err != nil {
		return nil, err
	}
	up, err := params.Linear(name("intermediate.dense.weight"), name("intermediate.dense.bias"))
	if err != nil {
		return nil, err
	}
	down, err := params.Linear(name("output.dense.weight"), name("output.dense.bias"))
	if err != nil {
		return nil, err
	}
	ffnNorm, err := params.LayerNorm(name("output.LayerNorm.weight"), name("output.LayerNorm.bias"), config.LayerNormEps)
	if err != nil {
		return nil, err
	}

	attention := layers.NewSelfAttention(query, key, value, attnOut, config.NumHeads, nil)
	ffn := layers.NewFeedForward(up, nil, down, config.Activation)
	return layers.NewTransformerLayer(attention, ffn, attnNorm, ffnNorm, layers.ResidualPostNorm), nil
}

// Config returns the model hyperparameters.
func (m *Encoder) Config() *Config {
	return m.config
}

// Forward encodes ids [batch, seq] under an optional attention mask.
func (m *Encoder) Forward(ids, mask *tensor.Tensor) (*models.EncoderOutput, error) {
	shape := ids.Shape()
	if len(shape) != 2 {
		return nil, models.NewConfigurationError("expected [batch, seq] ids, got %v", shape)
	}
	if err := models.ValidateMask(mask, shape[0], shape[1]); err != nil {
		return nil, err
	}

	hidden := m.embeddings.Forward(ids, mask, nil, 0)
	states := []*tensor.Tensor{hidden}
	for _, block := range m.blocks {
		var err error
		if hidden, err = block.Forward(hidden, mask, nil, false); err != nil {
			return nil, err
		}
		states = append(states, hidden)
	}
	return &models.EncoderOutput{AllHiddenStates: states}, nil
}

// ModulesToNotQuantize lists modules a quantizer must keep in full
// precision. Encoders have none.
func (m *Encoder) ModulesToNotQuantize() []string {
	return nil
}
