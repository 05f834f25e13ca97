// Package rnn implements the recurrent core: a closed set of cell
// variants (LSTM, GRU, plain tanh/relu recurrence) behind a
// multi-layer Stack advancing one time step at a time.
package rnn

import "fmt"

// Kind selects the recurrent cell variant. The set is closed: an
// unrecognized name is a configuration error raised before any
// tensor is allocated.
type Kind int

// Supported cell variants.
const (
	LSTM Kind = iota // gated, separate cell memory
	GRU              // gated, single hidden state
	RNNTanh          // plain recurrence, tanh nonlinearity
	RNNReLU          // plain recurrence, relu nonlinearity
)

var kindNames = map[Kind]string{
	LSTM:    "LSTM",
	GRU:     "GRU",
	RNNTanh: "RNN_TANH",
	RNNReLU: "RNN_RELU",
}

// ParseKind resolves a model name to its Kind. Accepted names are
// LSTM, GRU, RNN_TANH and RNN_RELU.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid model %q, options are ['LSTM', 'GRU', 'RNN_TANH', 'RNN_RELU']", name)
}

// String returns the canonical model name.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// HasCellState reports whether the variant carries a separate cell
// memory alongside the hidden state.
func (k Kind) HasCellState() bool {
	return k == LSTM
}

// valid reports whether k is a member of the closed set.
func (k Kind) valid() bool {
	_, ok := kindNames[k]
	return ok
}
