package llama

import (
	"fmt"

	"github.com/KennethEnevoldsen/curated-transformers/internal/kvcache"
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// CausalLM is a LLaMA model built from a loaded checkpoint.
type CausalLM struct {
	config     *Config
	embeddings *layers.Embedding
	blocks     []*layers.TransformerLayer
	finalNorm  layers.Normalizer
	output     *layers.Linear
}

// New builds the model from a state dict using the upstream LLaMA parameter
// names. Checkpoints without a separate lm_head tie the output projection
// to the input embeddings.
func New(config *Config, params models.StateDict) (*CausalLM, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embeddings, err := params.Embedding("model.embed_tokens.weight")
	if err != nil {
		return nil, err
	}
	finalNorm, err := params.RMSNorm("model.norm.weight", config.RMSNormEps)
	if err != nil {
		return nil, err
	}
	var output *layers.Linear
	if weight, err := params.Tensor("lm_head.weight"); err == nil {
		output = layers.NewLinear(weight, nil)
	} else {
		output = layers.NewLinear(embeddings.Weight(), nil)
	}

	blocks := make([]*layers.TransformerLayer, config.NumLayers)
	for i := range blocks {
		if blocks[i], err = buildLayer(config, params, i); err != nil {
			return nil, err
		}
	}

	return &CausalLM{
		config:     config,
		embeddings: embeddings,
		blocks:     blocks,
		finalNorm:  finalNorm,
		output:     output,
	}, nil
}

func buildLayer(config *Config, params models.StateDict, i int) (*layers.TransformerLayer, error) {
	prefix := fmt.Sprintf("model.layers.%d", i)
	name := func(suffix string) string { return prefix + "." + suffix }

	query, err := params.Linear(name("self_attn.q_proj.weight"), "")
	if err != nil {
		return nil, err
	}
	key, err := params.Linear(name("self_attn.k_proj.weight"), "")
	if err != nil {
		return nil, err
	}
	value, err := params.Linear(name("self_attn.v_proj.weight"), "")
	if err != nil {
		return nil, err
	}
	attnOut, err := params.Linear(name("self_attn.o_proj.weight"), "")
	if err != nil {
		return nil, err
	}
	attnNorm, err := params.RMSNorm(name("input_layernorm.weight"), config.RMSNormEps)
	if err != nil {
		return nil, err
	}
	gate, err := params.Linear(name("mlp.gate_proj.weight"), "")
	if err != nil {
		return nil, err
	}
	up, err := params.Linear(name("mlp.up_proj.weight"), "")
	if err != nil {
		return nil, err
	}
	down, err := params.Linear(name("mlp.down_proj.weight"), "")
	if err != nil {
		return nil, err
	}
	ffnNorm, err := params.RMSNorm(name("post_attention_layernorm.weight"), config.RMSNormEps)
	if err != nil {
		return nil, err
	}

	headDim := config.HiddenSize / config.NumHeads
	rotary := layers.NewRotaryEmbedding(headDim, config.RopeBase)
	attention := layers.NewSelfAttention(query, key, value, attnOut, config.NumHeads, rotary)
	ffn := layers.NewFeedForward(up, gate, down, config.Activation)
	return layers.NewTransformerLayer(attention, ffn, attnNorm, ffnNorm, layers.ResidualPreNorm), nil
}

// Config returns the model hyperparameters.
func (m *CausalLM) Config() *Config {
	return m.config
}

// NewCache preallocates a key-value cache for the model geometry.
func (m *CausalLM) NewCache(batch, capacity int) *kvcache.Cache {
	return kvcache.New(m.config.NumLayers, batch, m.config.NumHeads, m.config.HiddenSize/m.config.NumHeads, capacity, tensor.CPU)
}

// Forward decodes ids [batch, seq]. With a non-empty cache only the last
// position's logits are computed.
func (m *CausalLM) Forward(ids, mask *tensor.Tensor, cache *kvcache.Cache) (*models.CausalLMOutput, error) {
	shape := ids.Shape()
	if len(shape) != 2 {
		return nil, models.NewConfigurationError("expected [batch, seq] ids, got %v", shape)
	}
	batch, seq := shape[0], shape[1]
	if err := models.ValidateCache(cache, m.config.NumLayers, batch); err != nil {
		return nil, err
	}
	cacheLen := 0
	if cache != nil {
		cacheLen = cache.Length()
	}
	if err := models.ValidateMask(mask, batch, cacheLen+seq); err != nil {
		return nil, err
	}

	hidden := m.embeddings.Forward(ids)
	for i, block := range m.blocks {
		var layerCache *kvcache.LayerCache
		if cache != nil {
			layerCache = cache.Layer(i)
		}
		var err error
		if hidden, err = block.Forward(hidden, mask, layerCache, true); err != nil {
			return nil, err
		}
	}

	if cacheLen > 0 {
		hidden = hidden.Narrow(1, seq-1, 1)
	}
	logits := m.output.Forward(m.finalNorm.Forward(hidden))
	return &models.CausalLMOutput{Logits: logits}, nil
}

var modulesToNotQuantize = []string{"output_embeddings"}

// ModulesToNotQuantize lists modules a quantizer must keep in full
// precision.
func (m *CausalLM) ModulesToNotQuantize() []string {
	return modulesToNotQuantize
}
