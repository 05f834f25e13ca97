package nn

import (
	"fmt"
	"math/rand"

	"github.com/nextquery/nextquery/internal/tensor"
)

// Dropout zeroes each element independently with probability P during
// training, scaling the survivors by 1/(1-P) so the expected
// activation is unchanged (inverted dropout). In eval mode it is the
// identity, which is the default: this library performs inference
// forward passes, and training code must opt in via Train(true).
type Dropout[B tensor.Backend] struct {
	P        float32
	training bool
	rng      *rand.Rand
}

// NewDropout creates a Dropout layer. P must lie in [0, 1).
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability %v outside [0, 1)", p))
	}
	return &Dropout[B]{P: p}
}

// Train toggles training mode.
func (d *Dropout[B]) Train(on bool) { d.training = on }

// Seed fixes the mask RNG for reproducible stochastic passes.
func (d *Dropout[B]) Seed(seed int64) {
	d.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic masks, not security
}

// Forward applies the dropout mask in training mode and passes the
// input through untouched otherwise.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.P == 0 {
		return input
	}

	float64n := rand.Float64
	if d.rng != nil {
		float64n = d.rng.Float64
	}

	out := input.Clone()
	data := out.Data()
	scale := 1 / (1 - d.P)
	for i := range data {
		if float32(float64n()) < d.P {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return out
}

// Parameters returns nil: dropout has no trainable parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] { return nil }
