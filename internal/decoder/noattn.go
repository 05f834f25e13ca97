package decoder

import "github.com/nextquery/nextquery/internal/tensor"

// NoAttention is the baseline decoder: embed, recur, project. It
// never looks at encoder outputs.
type NoAttention[B tensor.Backend] struct {
	base[B]
}

// NewNoAttention builds the baseline decoder.
func NewNoAttention[B tensor.Backend](vocabSize int, cfg Config, backend B) (*NoAttention[B], error) {
	b, err := newBase(vocabSize, cfg, cfg.EmbedSize, backend)
	if err != nil {
		return nil, err
	}
	return &NoAttention[B]{b}, nil
}

// Forward advances one decoding step. input is a token batch [batch]
// and the result is log-probabilities [batch, vocab] plus the new
// hidden state.
func (d *NoAttention[B]) Forward(input *tensor.Tensor[int32, B], hidden Hidden[B]) (*tensor.Tensor[float32, B], Hidden[B], error) {
	embedded, err := d.embed(input)
	if err != nil {
		return nil, Hidden[B]{}, err
	}

	output, hidden, err := d.core.Step(embedded, hidden)
	if err != nil {
		return nil, Hidden[B]{}, err
	}
	output = d.drop.Forward(output)

	return d.project(output), hidden, nil
}

// StateDict returns every parameter keyed by name.
func (d *NoAttention[B]) StateDict() map[string]*tensor.RawTensor {
	return d.baseStateDict()
}

// LoadStateDict restores every parameter from a StateDict.
func (d *NoAttention[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return d.baseLoadStateDict(stateDict)
}
