// Package nn implements the neural network building blocks the
// decoders are assembled from: trainable parameters, linear and
// embedding layers, dropout, and weight initializers.
package nn

import (
	"github.com/nextquery/nextquery/internal/tensor"
)

// Module is the base interface for neural network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module for one input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// empty for parameterless modules.
	Parameters() []*Parameter[B]
}
