package gptneox

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

func TestSplitFusedQKV_ExtractsPerHeadBlocks(t *testing.T) {
	// Two heads with head dimension 1: the fused rows are
	// q0, k0, v0, q1, k1, v1.
	weight, err := tensor.FromFloats([]float32{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
		9, 10,
		11, 12,
	}, tensor.Shape{6, 2}, tensor.CPU)
	require.NoError(t, err)
	bias, err := tensor.FromFloats([]float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, tensor.Shape{6}, tensor.CPU)
	require.NoError(t, err)

	query, key, value, err := splitFusedQKV(weight, bias, 2)
	require.NoError(t, err)

	identity, err := tensor.FromFloats([]float32{1, 0, 0, 1}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)

	// Forwarding the identity yields the transposed weight plus the bias.
	assert.InDeltaSlice(t, []float32{1.1, 7.4, 2.1, 8.4}, query.Forward(identity).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, []float32{3.2, 9.5, 4.2, 10.5}, key.Forward(identity).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, []float32{5.3, 11.6, 6.3, 12.6}, value.Forward(identity).AsFloat32(), 1e-6)
}

func TestSplitFusedQKV_RejectsIndivisibleWeight(t *testing.T) {
	weight := tensor.Zeros(tensor.Shape{5, 2}, tensor.CPU)
	bias := tensor.Zeros(tensor.Shape{5}, tensor.CPU)

	var configErr *models.ConfigurationError
	_, _, _, err := splitFusedQKV(weight, bias, 2)
	require.ErrorAs(t, err, &configErr)
}

func tinyConfig() *Config {
	return &Config{
		VocabSize:           6,
		HiddenSize:          4,
		IntermediateSize:    8,
		NumLayers:           2,
		NumHeads:            2,
		LayerNormEps:        1e-5,
		Activation:          layers.ActivationGELU,
		RotaryPct:           1.0,
		RopeBase:            10000,
		UseParallelResidual: true,
	}
}

func randTensor(t *testing.T, r *rand.Rand, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	n := 1
	for _, d := range shape {
		n *= d
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = (r.Float32() - 0.5) * 0.2
	}
	out, err := tensor.FromFloats(data, shape, tensor.CPU)
	require.NoError(t, err)
	return out
}

func tinyStateDict(t *testing.T, config *Config) models.StateDict {
	t.Helper()
	r := rand.New(rand.NewSource(7))
	hidden := config.HiddenSize
	params := models.StateDict{
		"gpt_neox.embed_in.weight":          randTensor(t, r, tensor.Shape{config.VocabSize, hidden}),
		"gpt_neox.final_layer_norm.weight":  randTensor(t, r, tensor.Shape{hidden}),
		"gpt_neox.final_layer_norm.bias":    randTensor(t, r, tensor.Shape{hidden}),
		"embed_out.weight":                  randTensor(t, r, tensor.Shape{config.VocabSize, hidden}),
	}
	for i := 0; i < config.NumLayers; i++ {
		prefix := fmt.Sprintf("gpt_neox.layers.%d", i)
		params[prefix+".attention.query_key_value.weight"] = randTensor(t, r, tensor.Shape{3 * hidden, hidden})
		params[prefix+".attention.query_key_value.bias"] = randTensor(t, r, tensor.Shape{3 * hidden})
		params[prefix+".attention.dense.weight"] = randTensor(t, r, tensor.Shape{hidden, hidden})
		params[prefix+".attention.dense.bias"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".input_layernorm.weight"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".input_layernorm.bias"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".mlp.dense_h_to_4h.weight"] = randTensor(t, r, tensor.Shape{config.IntermediateSize, hidden})
		params[prefix+".mlp.dense_h_to_4h.bias"] = randTensor(t, r, tensor.Shape{config.IntermediateSize})
		params[prefix+".mlp.dense_4h_to_h.weight"] = randTensor(t, r, tensor.Shape{hidden, config.IntermediateSize})
		params[prefix+".mlp.dense_4h_to_h.bias"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".post_attention_layernorm.weight"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".post_attention_layernorm.bias"] = randTensor(t, r, tensor.Shape{hidden})
	}
	return params
}

func TestForward_CachedMatchesFull(t *testing.T) {
	config := tinyConfig()
	model, err := New(config, tinyStateDict(t, config))
	require.NoError(t, err)

	prompt := []int32{0, 3, 1, 5}
	ids, err := tensor.FromInts(prompt, tensor.Shape{1, len(prompt)}, tensor.CPU)
	require.NoError(t, err)
	full, err := model.Forward(ids, nil, nil)
	require.NoError(t, err)
	fullLogits := full.Logits.AsFloat32()

	cache := model.NewCache(1, len(prompt))
	for pos, id := range prompt {
		step, err := tensor.FromInts([]int32{id}, tensor.Shape{1, 1}, tensor.CPU)
		require.NoError(t, err)
		out, err := model.Forward(step, nil, cache)
		require.NoError(t, err)

		stepLogits := out.Logits.AsFloat32()
		for v := 0; v < config.VocabSize; v++ {
			assert.InDelta(t, fullLogits[pos*config.VocabSize+v], stepLogits[v], 1e-4)
		}
	}
}

func TestForward_SequentialResidual(t *testing.T) {
	config := tinyConfig()
	config.UseParallelResidual = false
	model, err := New(config, tinyStateDict(t, config))
	require.NoError(t, err)

	ids, err := tensor.FromInts([]int32{1, 2}, tensor.Shape{1, 2}, tensor.CPU)
	require.NoError(t, err)
	out, err := model.Forward(ids, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, config.VocabSize}, out.Logits.Shape())
}
