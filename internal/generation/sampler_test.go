package generation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_GreedyPicksArgmax(t *testing.T) {
	config := DefaultSamplingConfig()
	config.Temperature = 0
	sampler := NewSampler(config)

	assert.Equal(t, int32(2), sampler.Sample([]float32{0.1, 0.3, 2.5, -1}))
	assert.Equal(t, int32(0), sampler.Sample([]float32{4, 1, 1}))
}

func TestSampler_SeededSamplingIsReproducible(t *testing.T) {
	config := DefaultSamplingConfig()
	config.Seed = 42
	logits := []float32{1, 2, 3, 2, 1}

	a := NewSampler(config)
	b := NewSampler(config)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Sample(logits), b.Sample(logits))
	}
}

func TestSampler_TopKRestrictsSupport(t *testing.T) {
	config := DefaultSamplingConfig()
	config.TopK = 2
	config.Seed = 7
	sampler := NewSampler(config)

	logits := []float32{0, 10, -5, 9, 1}
	for i := 0; i < 50; i++ {
		id := sampler.Sample(logits)
		assert.Contains(t, []int32{1, 3}, id)
	}
}

func TestSampler_TopPRestrictsSupport(t *testing.T) {
	config := DefaultSamplingConfig()
	config.TopP = 0.5
	config.Seed = 7
	sampler := NewSampler(config)

	// One piece holds nearly all probability mass, top-p 0.5 keeps only it.
	logits := []float32{20, 1, 0, -2}
	for i := 0; i < 50; i++ {
		assert.Equal(t, int32(0), sampler.Sample(logits))
	}
}

func TestTopKFilter_MasksBelowThreshold(t *testing.T) {
	logits := []float32{0, 10, -5, 9, 1}
	topKFilter(logits, 2)

	negInf := float32(math.Inf(-1))
	assert.Equal(t, []float32{negInf, 10, negInf, 9, negInf}, logits)
}

func TestSoftmax_IgnoresMaskedLogits(t *testing.T) {
	negInf := float32(math.Inf(-1))
	probs := softmax([]float32{1, negInf, 1})

	require.Len(t, probs, 3)
	assert.InDelta(t, 0.5, probs[0], 1e-6)
	assert.Equal(t, float32(0), probs[1])
	assert.InDelta(t, 0.5, probs[2], 1e-6)
}

func TestSampler_TemperatureSharpensDistribution(t *testing.T) {
	config := DefaultSamplingConfig()
	config.Temperature = 0.01
	config.Seed = 3
	sampler := NewSampler(config)

	// Near-zero temperature concentrates the mass on the argmax.
	logits := []float32{1, 2, 5, 0}
	for i := 0; i < 50; i++ {
		assert.Equal(t, int32(2), sampler.Sample(logits))
	}
}
