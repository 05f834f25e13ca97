// Package decoder implements the decoding side of a
// sequence-to-sequence query suggestion model: four decoder variants
// (plain, concat attention, global attention, local windowed
// attention) over a shared recurrent core, embedding table and
// output projection.
package decoder

import "github.com/nextquery/nextquery/internal/rnn"

// Config is the immutable decoder configuration, fixed at
// construction and never mutated afterwards.
type Config struct {
	// Model names the recurrent variant: LSTM, GRU, RNN_TANH or
	// RNN_RELU.
	Model string
	// EmbedSize is the token embedding dimension.
	EmbedSize int
	// HiddenSize is the recurrent hidden dimension, shared with the
	// encoder outputs this decoder attends over.
	HiddenSize int
	// Layers is the recurrent layer count, at least 1.
	Layers int
	// Dropout in [0, 1), applied to the embedded input and to the
	// recurrent output while training.
	Dropout float32
}

// Validate checks the configuration, wrapping every failure in
// ErrConfig.
func (c Config) Validate() error {
	if _, err := rnn.ParseKind(c.Model); err != nil {
		return configErrorf("%v", err)
	}
	if c.EmbedSize < 1 {
		return configErrorf("embedding size must be positive, got %d", c.EmbedSize)
	}
	if c.HiddenSize < 1 {
		return configErrorf("hidden size must be positive, got %d", c.HiddenSize)
	}
	if c.Layers < 1 {
		return configErrorf("number of layers must be at least 1, got %d", c.Layers)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return configErrorf("dropout %v outside [0, 1)", c.Dropout)
	}
	return nil
}

func (c Config) kind() rnn.Kind {
	k, err := rnn.ParseKind(c.Model)
	if err != nil {
		// Validate runs first in every constructor.
		panic(err)
	}
	return k
}
