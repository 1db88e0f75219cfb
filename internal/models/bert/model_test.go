package bert

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

func tinyConfig() *Config {
	return &Config{
		VocabSize:        8,
		HiddenSize:       4,
		IntermediateSize: 8,
		NumLayers:        2,
		NumHeads:         2,
		MaxPositions:     16,
		TypeVocabSize:    2,
		LayerNormEps:     1e-12,
		Activation:       layers.ActivationGELU,
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
	r := rand.New(rand.NewSource(13))
	hidden := config.HiddenSize
	params := models.StateDict{
		"embeddings.word_embeddings.weight":       randTensor(t, r, tensor.Shape{config.VocabSize, hidden}),
		"embeddings.position_embeddings.weight":   randTensor(t, r, tensor.Shape{config.MaxPositions, hidden}),
		"embeddings.token_type_embeddings.weight": randTensor(t, r, tensor.Shape{config.TypeVocabSize, hidden}),
		"embeddings.LayerNorm.weight":             randTensor(t, r, tensor.Shape{hidden}),
		"embeddings.LayerNorm.bias":               randTensor(t, r, tensor.Shape{hidden}),
	}
	for i := 0; i < config.NumLayers; i++ {
		prefix := fmt.Sprintf("encoder.layer.%d", i)
		for _, proj := range []string{"attention.self.query", "attention.self.key", "attention.self.value", "attention.output.dense"} {
			params[prefix+"."+proj+".weight"] = randTensor(t, r, tensor.Shape{hidden, hidden})
			params[prefix+"."+proj+".bias"] = randTensor(t, r, tensor.Shape{hidden})
		}
		params[prefix+".attention.output.LayerNorm.weight"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".attention.output.LayerNorm.bias"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".intermediate.dense.weight"] = randTensor(t, r, tensor.Shape{config.IntermediateSize, hidden})
		params[prefix+".intermediate.dense.bias"] = randTensor(t, r, tensor.Shape{config.IntermediateSize})
		params[prefix+".output.dense.weight"] = randTensor(t, r, tensor.Shape{hidden, config.IntermediateSize})
		params[prefix+".output.dense.bias"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".output.LayerNorm.weight"] = randTensor(t, r, tensor.Shape{hidden})
		params[prefix+".output.LayerNorm.bias"] = randTensor(t, r, tensor.Shape{hidden})
	}
	return params
}

func TestForward_CollectsAllHiddenStates(t *testing.T) {
	config := tinyConfig()
	model, err := New(config, tinyStateDict(t, config))
	require.NoError(t, err)

	ids, err := tensor.FromInts([]int32{2, 4, 5}, tensor.Shape{1, 3}, tensor.CPU)
	require.NoError(t, err)
	out, err := model.Forward(ids, nil)
	require.NoError(t, err)

	// Embedding output plus one state per layer.
	require.Len(t, out.AllHiddenStates, config.NumLayers+1)
	for _, state := range out.AllHiddenStates {
		assert.Equal(t, tensor.Shape{1, 3, config.HiddenSize}, state.Shape())
	}
	assert.Same(t, out.AllHiddenStates[config.NumLayers], out.LastHiddenState())
}

func TestForward_MaskedPaddingDoesNotChangeOutputs(t *testing.T) {
	config := tinyConfig()
	model, err := New(config, tinyStateDict(t, config))
	require.NoError(t, err)

	ids, err := tensor.FromInts([]int32{2, 4}, tensor.Shape{1, 2}, tensor.CPU)
	require.NoError(t, err)
	out, err := model.Forward(ids, nil)
	require.NoError(t, err)

	padded, err := tensor.FromInts([]int32{2, 4, 0}, tensor.Shape{1, 3}, tensor.CPU)
	require.NoError(t, err)
	mask, err := tensor.FromBools([]bool{true, true, false}, tensor.Shape{1, 3}, tensor.CPU)
	require.NoError(t, err)
	outPadded, err := model.Forward(padded, mask)
	require.NoError(t, err)

	// Masked padding must not leak into the states of real positions.
	want := out.LastHiddenState().AsFloat32()
	got := outPadded.LastHiddenState().AsFloat32()
	for i := 0; i < 2*config.HiddenSize; i++ {
		assert.InDelta(t, want[i], got[i], 1e-5)
	}
}

func TestForward_RejectsBadMask(t *testing.T) {
	config := tinyConfig()
	model, err := New(config, tinyStateDict(t, config))
	require.NoError(t, err)

	ids, err := tensor.FromInts([]int32{2, 4}, tensor.Shape{1, 2}, tensor.CPU)
	require.NoError(t, err)
	mask, err := tensor.FromBools([]bool{true}, tensor.Shape{1, 1}, tensor.CPU)
	require.NoError(t, err)

	var configErr *models.ConfigurationError
	_, err = model.Forward(ids, mask)
	require.ErrorAs(t, err, &configErr)
}

func TestNew_RejectsIndivisibleHeads(t *testing.T) {
	config := tinyConfig()
	config.NumHeads = 3

	var configErr *models.ConfigurationError
	_, err := New(config, tinyStateDict(t, config))
	require.ErrorAs(t, err, &configErr)
}
