package nn

import (
	"github.com/nextquery/nextquery/internal/tensor"
)

// Parameter is a named, trainable tensor. Training itself is out of
// scope for this library; parameters exist so that model state can be
// enumerated, checkpointed and restored.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a parameter from an initialized tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name (e.g. "attn.weight").
func (p *Parameter[B]) Name() string { return p.name }

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] { return p.tensor }

// SetTensor replaces the parameter tensor, e.g. when loading a
// checkpoint.
func (p *Parameter[B]) SetTensor(t *tensor.Tensor[float32, B]) { p.tensor = t }
