package gptneox

import (
	"fmt"

	"github.com/KennethEnevoldsen/curated-transformers/internal/kvcache"
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// CausalLM is a GPT-NeoX model built from a loaded checkpoint.
type CausalLM struct {
	config     *Config
	embeddings *layers.Embedding
	blocks     []*layers.TransformerLayer
	finalNorm  layers.Normalizer
	output     *layers.Linear
}

// New builds the model from a state dict using the upstream GPT-NeoX
// parameter names.
func New(config *Config, params models.StateDict) (*CausalLM, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embeddings, err := params.Embedding("gpt_neox.embed_in.weight")
	if err != nil {
		return nil, err
	}
	finalNorm, err := params.LayerNorm("gpt_neox.final_layer_norm.weight", "gpt_neox.final_layer_norm.bias", config.LayerNormEps)
	if err != nil {
		return nil, err
	}
	outWeight, err := params.Tensor("embed_out.weight")
	if err != nil {
		return nil, err
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
		output:     layers.NewLinear(outWeight, nil),
	}, nil
}

func buildLayer(config *Config, params models.StateDict, i int) (*layers.TransformerLayer, error) {
	prefix := fmt.Sprintf("gpt_neox.layers.%d", i)
	name := func(suffix string) string { return prefix + "." + suffix }

	fusedWeight, err := params.Tensor(name("attention.query_key_value.weight"))
	if err != nil {
		return nil, err
	}
	fusedBias, err := params.Tensor(name("attention.query_key_value.bias"))
	if err != nil {
		return nil, err
	}
	query, key, value, err := splitFusedQKV(fusedWeight, fusedBias, config.NumHeads)
	if err != nil {
		return nil, err
	}
	attnOut, err := params.Linear(name("attention.dense.weight"), name("attention.dense.bias"))
	if err != nil {
		return nil, err
	}
	attnNorm, err := params.LayerNorm(name("input_layernorm.weight"), name("input_layernorm.bias"), config.LayerNormEps)
	if err != nil {
		return nil, err
	}
	up, err := params.Linear(name("mlp.dense_h_to_4h.weight"), name("mlp.dense_h_to_4h.bias"))
	if err != nil {
		return nil, err
	}
	down, err := params.Linear(name("mlp.dense_4h_to_h.weight"), name("mlp.dense_4h_to_h.bias"))
	if err != nil {
		return nil, err
	}
	ffnNorm, err := params.LayerNorm(name("post_attention_layernorm.weight"), name("post_attention_layernorm.bias"), config.LayerNormEps)
	if err != nil {
		return nil, err
	}

	rotary := layers.NewRotaryEmbedding(config.RotaryDim(), config.RopeBase)
	attention := layers.NewSelfAttention(query, key, value, attnOut, config.NumHeads, rotary)
	ffn := layers.NewFeedForward(up, nil, down, config.Activation)
	residual := layers.ResidualParallel
	if !config.UseParallelResidual {
		residual = layers.ResidualPreNorm
	}
	return layers.NewTransformerLayer(attention, ffn, attnNorm, ffnNorm, residual), nil
}

// splitFusedQKV separates the fused projection into query, key and value.
// The fused weight interleaves per head: for every head, headDim query rows
// are followed by headDim key rows and headDim value rows.
func splitFusedQKV(weight, bias *tensor.Tensor, heads int) (query, key, value *layers.Linear, err error) {
	shape := weight.Shape()
	if len(shape) != 2 || shape[0]%(3*heads) != 0 {
		return nil, nil, nil, models.NewConfigurationError("fused query-key-value weight %v does not split over %d heads", shape, heads)
	}
	hidden := shape[1]
	headDim := shape[0] / (3 * heads)

	src := weight.AsFloat32()
	biasSrc := bias.AsFloat32()
	weights := make([]*tensor.Tensor, 3)
	biases := make([]*tensor.Tensor, 3)
	for part := 0; part < 3; part++ {
		w := tensor.Zeros(tensor.Shape{heads * headDim, hidden}, weight.Device())
		b := tensor.Zeros(tensor.Shape{heads * headDim}, weight.Device())
		wDst := w.AsFloat32()
		bDst := b.AsFloat32()
		for h := 0; h < heads; h++ {
			srcRow := (h*3 + part) * headDim
			dstRow := h * headDim
			copy(wDst[dstRow*hidden:(dstRow+headDim)*hidden], src[srcRow*hidden:(srcRow+headDim)*hidden])
			copy(bDst[dstRow:dstRow+headDim], biasSrc[srcRow:srcRow+headDim])
		}
		weights[part] = w
		biases[part] = b
	}
	return layers.NewLinear(weights[0], biases[0]),
		layers.NewLinear(weights[1], biases[1]),
		layers.NewLinear(weights[2], biases[2]),
		nil
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
