// Package decode runs the per-step decoders autoregressively: token
// sampling over the emitted log-probabilities, a session that threads
// hidden state (and context, for the global variant) across steps,
// and attention-matrix export for inspection.
package decode

import (
	"math"
	"math/rand"
	"sort"
)

// SamplingConfig configures next-token selection.
type SamplingConfig struct {
	// Temperature controls randomness. 0 picks the argmax.
	Temperature float32
	// TopK limits sampling to the K most likely tokens. 0 disables.
	TopK int
	// TopP keeps the smallest set of tokens whose cumulative
	// probability exceeds P. 1.0 disables.
	TopP float32
	// Seed fixes the RNG. Negative means a random seed.
	Seed int64
}

// DefaultSamplingConfig returns greedy decoding, the usual choice for
// query suggestion.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{Temperature: 0, TopK: 0, TopP: 1.0, Seed: -1}
}

// Sampler selects the next token from a log-probability row.
type Sampler struct {
	config SamplingConfig
	rng    *rand.Rand
}

// NewSampler creates a sampler from the configuration.
func NewSampler(config SamplingConfig) *Sampler {
	seed := config.Seed
	if seed < 0 {
		seed = rand.Int63()
	}
	return &Sampler{
		config: config,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible decoding, not security
	}
}

// Sample returns the next token id given one batch row of
// log-probabilities (the decoder's output is already log-softmaxed).
func (s *Sampler) Sample(logProbs []float32) int32 {
	if s.config.Temperature == 0 {
		return argmax(logProbs)
	}

	scores := append([]float32{}, logProbs...)
	if s.config.Temperature != 1.0 {
		for i := range scores {
			scores[i] /= s.config.Temperature
		}
	}

	if s.config.TopK > 0 && s.config.TopK < len(scores) {
		topKFilter(scores, s.config.TopK)
	}
	if s.config.TopP > 0 && s.config.TopP < 1.0 {
		topPFilter(scores, s.config.TopP)
	}

	return s.multinomial(renormalize(scores))
}

func argmax(scores []float32) int32 {
	maxIdx := 0
	maxVal := scores[0]
	for i, v := range scores[1:] {
		if v > maxVal {
			maxVal = v
			maxIdx = i + 1
		}
	}
	return int32(maxIdx) //nolint:gosec // vocab size fits in int32
}

// topKFilter masks everything below the K-th largest score.
func topKFilter(scores []float32, k int) {
	sorted := append([]float32{}, scores...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	threshold := sorted[k-1]

	for i := range scores {
		if scores[i] < threshold {
			scores[i] = float32(math.Inf(-1))
		}
	}
}

// topPFilter implements nucleus sampling over the score row.
func topPFilter(scores []float32, p float32) {
	probs := renormalize(append([]float32{}, scores...))

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	var cum float32
	cutoff := len(idx) - 1
	for rank, i := range idx {
		cum += probs[i]
		if cum > p {
			cutoff = rank
			break
		}
	}

	keep := make(map[int]bool, cutoff+1)
	for rank := 0; rank <= cutoff; rank++ {
		keep[idx[rank]] = true
	}
	for i := range scores {
		if !keep[i] {
			scores[i] = float32(math.Inf(-1))
		}
	}
}

// renormalize turns (possibly masked) log scores back into a
// probability distribution.
func renormalize(scores []float32) []float32 {
	maxVal := float32(math.Inf(-1))
	for _, v := range scores {
		if v > maxVal {
			maxVal = v
		}
	}

	probs := make([]float32, len(scores))
	var sum float32
	for i, v := range scores {
		if math.IsInf(float64(v), -1) {
			continue
		}
		probs[i] = float32(math.Exp(float64(v - maxVal)))
		sum += probs[i]
	}
	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}
	return probs
}

func (s *Sampler) multinomial(probs []float32) int32 {
	r := s.rng.Float32()
	var cum float32
	for i, p := range probs {
		cum += p
		if r < cum {
			return int32(i) //nolint:gosec // vocab size fits in int32
		}
	}
	return int32(len(probs) - 1) //nolint:gosec // vocab size fits in int32
}
