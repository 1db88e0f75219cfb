package llama

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/loader"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/quant"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

func TestConvertHFConfig(t *testing.T) {
	config, err := ConvertHFConfig([]byte(`{
		"vocab_size": 32000,
		"hidden_size": 4096,
		"intermediate_size": 11008,
		"num_hidden_layers": 32,
		"num_attention_heads": 32,
		"rms_norm_eps": 1e-06,
		"hidden_act": "silu"
	}`))
	require.NoError(t, err)

	assert.Equal(t, 32000, config.VocabSize)
	assert.Equal(t, 32, config.NumLayers)
	// Missing num_key_value_heads falls back to the query head count,
	// missing rope_theta to 10000.
	assert.Equal(t, 32, config.NumKVHeads)
	assert.Equal(t, float64(10000), config.RopeBase)
	assert.Equal(t, layers.ActivationSiLU, config.Activation)
}

func TestConvertHFConfig_RejectsGroupedQueryAttention(t *testing.T) {
	var configErr *models.ConfigurationError
	_, err := ConvertHFConfig([]byte(`{
		"vocab_size": 32000,
		"hidden_size": 4096,
		"intermediate_size": 11008,
		"num_hidden_layers": 32,
		"num_attention_heads": 32,
		"num_key_value_heads": 8
	}`))
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, err.Error(), "grouped-query attention")
}

func TestConvertHFConfig_InvalidJSON(t *testing.T) {
	var configErr *models.ConfigurationError
	_, err := ConvertHFConfig([]byte(`{`))
	require.ErrorAs(t, err, &configErr)
}

const tinyConfigJSON = `{
	"model_type": "llama",
	"vocab_size": 6,
	"hidden_size": 4,
	"intermediate_size": 8,
	"num_hidden_layers": 2,
	"num_attention_heads": 2,
	"rms_norm_eps": 1e-06,
	"hidden_act": "silu"
}`

func writeRepo(t *testing.T, params models.StateDict) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(tinyConfigJSON), 0o644))

	header := make(map[string]loader.TensorInfo, len(params))
	var payload []byte
	for name, p := range params {
		data := p.AsFloat32()
		raw := make([]byte, len(data)*4)
		for i, v := range data {
			binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
		}
		header[name] = loader.TensorInfo{
			DType:       "F32",
			Shape:       []int(p.Shape()),
			DataOffsets: [2]int64{int64(len(payload)), int64(len(payload) + len(raw))},
		}
		payload = append(payload, raw...)
	}
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	f, err := os.Create(filepath.Join(dir, "model.safetensors"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, binary.Write(f, binary.LittleEndian, uint64(len(headerJSON))))
	_, err = f.Write(headerJSON)
	require.NoError(t, err)
	_, err = f.Write(payload)
	require.NoError(t, err)
	return dir
}

func TestFromRepo_LoadsLocalCheckpoint(t *testing.T) {
	dir := writeRepo(t, tinyStateDict(t, tinyConfig()))

	model, err := FromRepo(hub.NewLocalDir(dir))
	require.NoError(t, err)
	assert.Equal(t, 2, model.Config().NumLayers)

	ids, err := tensor.FromInts([]int32{1, 2}, tensor.Shape{1, 2}, tensor.CPU)
	require.NoError(t, err)
	out, err := model.Forward(ids, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 6}, out.Logits.Shape())
}

func TestFromRepoQuantized_RoundsWeights(t *testing.T) {
	dir := writeRepo(t, tinyStateDict(t, tinyConfig()))

	model, err := FromRepoQuantized(hub.NewLocalDir(dir), quant.Float16{})
	require.NoError(t, err)
	ids, err := tensor.FromInts([]int32{1}, tensor.Shape{1, 1}, tensor.CPU)
	require.NoError(t, err)
	_, err = model.Forward(ids, nil, nil)
	require.NoError(t, err)
}
