package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KennethEnevoldsen/curated-transformers/internal/kvcache"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// cyclingModel predicts (id+1) mod vocab for every input position.
type cyclingModel struct {
	vocab int
}

func (m *cyclingModel) NewCache(batch, capacity int) *kvcache.Cache {
	return kvcache.New(1, batch, 1, 2, capacity, tensor.CPU)
}

func (m *cyclingModel) Forward(ids, _ *tensor.Tensor, _ *kvcache.Cache) (*models.CausalLMOutput, error) {
	shape := ids.Shape()
	data := make([]float32, shape[0]*shape[1]*m.vocab)
	for i, id := range ids.AsInt32() {
		data[i*m.vocab+(int(id)+1)%m.vocab] = 1
	}
	logits, err := tensor.FromFloats(data, tensor.Shape{shape[0], shape[1], m.vocab}, tensor.CPU)
	if err != nil {
		return nil, err
	}
	return &models.CausalLMOutput{Logits: logits}, nil
}

func greedyConfig() Config {
	config := DefaultConfig()
	config.MaxNewTokens = 10
	config.EosID = 4
	return config
}

func TestGenerate_StopsOnEos(t *testing.T) {
	gen, err := NewGenerator(&cyclingModel{vocab: 5}, greedyConfig())
	require.NoError(t, err)

	generated, err := gen.Generate(context.Background(), []int32{0})
	require.NoError(t, err)
	// 0 -> 1 -> 2 -> 3 -> 4 stops, the end-of-sequence piece is dropped.
	assert.Equal(t, []int32{1, 2, 3}, generated)
}

func TestGenerate_StopsOnMaxNewTokens(t *testing.T) {
	config := greedyConfig()
	config.EosID = -1
	config.MaxNewTokens = 3
	gen, err := NewGenerator(&cyclingModel{vocab: 5}, config)
	require.NoError(t, err)

	generated, err := gen.Generate(context.Background(), []int32{2})
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 4, 0}, generated)
}

func TestGenerateBatch_DecodesIndependently(t *testing.T) {
	gen, err := NewGenerator(&cyclingModel{vocab: 5}, greedyConfig())
	require.NoError(t, err)

	generated, err := gen.GenerateBatch(context.Background(), [][]int32{{0}, {2}})
	require.NoError(t, err)
	assert.Equal(t, [][]int32{{1, 2, 3}, {3}}, generated)
}

func TestSession_StateMachine(t *testing.T) {
	gen, err := NewGenerator(&cyclingModel{vocab: 5}, greedyConfig())
	require.NoError(t, err)
	session, err := gen.NewSession(2)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, session.State())

	var configErr *models.ConfigurationError
	_, err = session.Next()
	require.ErrorAs(t, err, &configErr)

	id, err := session.Prime([]int32{0, 1})
	require.NoError(t, err)
	assert.Equal(t, int32(2), id)
	assert.Equal(t, StatePrimed, session.State())

	_, err = session.Prime([]int32{0})
	require.ErrorAs(t, err, &configErr)

	id, err = session.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(3), id)
	assert.Equal(t, StateExtending, session.State())

	id, err = session.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(4), id)
	assert.Equal(t, StateDone, session.State())
	assert.Equal(t, []int32{2, 3}, session.Generated())

	_, err = session.Next()
	require.ErrorAs(t, err, &configErr)
}

func TestSession_EosOnPrime(t *testing.T) {
	gen, err := NewGenerator(&cyclingModel{vocab: 5}, greedyConfig())
	require.NoError(t, err)
	session, err := gen.NewSession(1)
	require.NoError(t, err)

	id, err := session.Prime([]int32{3})
	require.NoError(t, err)
	assert.Equal(t, int32(4), id)
	assert.Equal(t, StateDone, session.State())
	assert.Empty(t, session.Generated())
}

func TestStream_YieldsEveryPiece(t *testing.T) {
	gen, err := NewGenerator(&cyclingModel{vocab: 5}, greedyConfig())
	require.NoError(t, err)

	var pieces []int32
	err = gen.Stream(context.Background(), []int32{0}, func(id int32) bool {
		pieces = append(pieces, id)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, pieces)
}

func TestStream_StopsWhenYieldReturnsFalse(t *testing.T) {
	gen, err := NewGenerator(&cyclingModel{vocab: 5}, greedyConfig())
	require.NoError(t, err)

	var pieces []int32
	err = gen.Stream(context.Background(), []int32{0}, func(id int32) bool {
		pieces = append(pieces, id)
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, pieces)
}

func TestGenerate_CancelledContext(t *testing.T) {
	config := greedyConfig()
	config.EosID = -1
	gen, err := NewGenerator(&cyclingModel{vocab: 5}, config)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gen.Generate(ctx, []int32{0})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGenerator_RejectsNonPositiveMaxNewTokens(t *testing.T) {
	config := greedyConfig()
	config.MaxNewTokens = 0
	var configErr *models.ConfigurationError
	_, err := NewGenerator(&cyclingModel{vocab: 5}, config)
	require.ErrorAs(t, err, &configErr)
}
