// Package generation drives autoregressive decoding: a sampler that turns
// logits into piece ids and a session state machine around the model's
// key-value cache.
package generation

import (
	"cmp"
	"math"
	"math/rand"
	"sort"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// SamplingConfig configures how the next piece id is drawn from logits.
type SamplingConfig struct {
	// Temperature scales logits before sampling. 0 selects greedily.
	Temperature float32

	// TopK keeps only the K highest logits. 0 disables the filter.
	TopK int

	// TopP keeps the smallest set of pieces whose cumulative probability
	// exceeds P. 1 disables the filter.
	TopP float32

	// Seed makes sampling reproducible. Negative seeds a random source.
	Seed int64
}

// DefaultSamplingConfig samples from the unmodified distribution.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Temperature: 1.0,
		TopK:        0,
		TopP:        1.0,
		Seed:        -1,
	}
}

// Sampler draws piece ids from logits.
type Sampler struct {
	config SamplingConfig
	rng    *rand.Rand
}

func NewSampler(config SamplingConfig) *Sampler {
	seed := config.Seed
	if seed < 0 {
		seed = rand.Int63()
	}
	return &Sampler{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Sample returns the next piece id for one row of logits.
func (s *Sampler) Sample(logits []float32) int32 {
	if s.config.Temperature == 0 {
		return argmax(logits)
	}

	scaled := append([]float32(nil), logits...)
	if s.config.Temperature != 1.0 {
		for i := range scaled {
			scaled[i] /= s.config.Temperature
		}
	}
	if s.config.TopK > 0 && s.config.TopK < len(scaled) {
		topKFilter(scaled, s.config.TopK)
	}
	if s.config.TopP > 0 && s.config.TopP < 1 {
		topPFilter(scaled, s.config.TopP)
	}
	return s.multinomial(softmax(scaled))
}

func argmax(logits []float32) int32 {
	maxIdx := 0
	for i, v := range logits {
		if v > logits[maxIdx] {
			maxIdx = i
		}
	}
	return int32(maxIdx)
}

type scoredPiece struct {
	id    int
	logit float32
}

// topKFilter keeps the K highest logits using a size-K min-heap and sets
// the rest to -inf in place.
func topKFilter(logits []float32, k int) {
	heap := binaryheap.NewWith[scoredPiece](func(a, b scoredPiece) int {
		return cmp.Compare(a.logit, b.logit)
	})
	for i, v := range logits {
		heap.Push(scoredPiece{id: i, logit: v})
		if heap.Size() > k {
			heap.Pop()
		}
	}
	threshold, _ := heap.Peek()
	for i, v := range logits {
		if v < threshold.logit {
			logits[i] = float32(math.Inf(-1))
		}
	}
}

// topPFilter keeps the smallest prefix of the sorted distribution whose
// cumulative probability exceeds p and sets the rest to -inf in place.
func topPFilter(logits []float32, p float32) {
	probs := softmax(append([]float32(nil), logits...))
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return probs[order[i]] > probs[order[j]] })

	var cumulative float32
	cutoff := len(order)
	for rank, idx := range order {
		cumulative += probs[idx]
		if cumulative > p {
			cutoff = rank + 1
			break
		}
	}
	for _, idx := range order[cutoff:] {
		logits[idx] = float32(math.Inf(-1))
	}
}

func softmax(logits []float32) []float32 {
	maxVal := float32(math.Inf(-1))
	for _, v := range logits {
		if v > maxVal {
			maxVal = v
		}
	}
	probs := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		if math.IsInf(float64(v), -1) {
			continue
		}
		probs[i] = float32(math.Exp(float64(v - maxVal)))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func (s *Sampler) multinomial(probs []float32) int32 {
	r := s.rng.Float32()
	var cumulative float32
	for i, p := range probs {
		cumulative += p
		if r < cumulative {
			return int32(i)
		}
	}
	return int32(len(probs) - 1)
}
