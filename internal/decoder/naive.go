package decoder

import (
	"github.com/nextquery/nextquery/internal/nn"
	"github.com/nextquery/nextquery/internal/rnn"
	"github.com/nextquery/nextquery/internal/tensor"
)

// NaiveAttention scores encoder positions with a single learned
// linear head over the concatenation of the embedded input and the
// last recurrent layer's hidden state. The head's width is fixed at
// construction, so every encoder output fed to Forward must have
// exactly maxSentLength positions.
type NaiveAttention[B tensor.Backend] struct {
	base[B]
	maxSentLength int
	attn          *nn.Linear[B]
	attnCombine   *nn.Linear[B]
}

// NewNaiveAttention builds the concat-scoring decoder. maxSentLength
// is the fixed source length the attention head is sized for.
func NewNaiveAttention[B tensor.Backend](vocabSize, maxSentLength int, cfg Config, backend B) (*NaiveAttention[B], error) {
	// the combined context+embedding vector is rectified before each
	// recurrent layer
	b, err := newBase(vocabSize, cfg, cfg.HiddenSize, backend, rnn.WithInputReLU())
	if err != nil {
		return nil, err
	}
	if maxSentLength < 1 {
		return nil, configErrorf("max sentence length must be positive, got %d", maxSentLength)
	}

	concat := cfg.EmbedSize + cfg.HiddenSize
	return &NaiveAttention[B]{
		base:          b,
		maxSentLength: maxSentLength,
		attn:          nn.NewLinear(concat, maxSentLength, backend),
		attnCombine:   nn.NewLinear(concat, cfg.HiddenSize, backend),
	}, nil
}

// MaxSentLength returns the source length the attention head was
// sized for.
func (d *NaiveAttention[B]) MaxSentLength() int { return d.maxSentLength }

// Forward advances one decoding step. encoderOutputs is
// [batch, maxSentLength, hidden]; the returned attention weights are
// [batch, maxSentLength], one normalized distribution per row.
func (d *NaiveAttention[B]) Forward(input *tensor.Tensor[int32, B], hidden Hidden[B], encoderOutputs *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], Hidden[B], *tensor.Tensor[float32, B], error) {
	embedded, err := d.embed(input)
	if err != nil {
		return nil, Hidden[B]{}, nil, err
	}
	batch := embedded.Shape()[0]

	srcLen, err := d.checkEncoderOutputs(encoderOutputs, batch)
	if err != nil {
		return nil, Hidden[B]{}, nil, err
	}
	if srcLen != d.maxSentLength {
		return nil, Hidden[B]{}, nil, shapeError("encoder outputs",
			tensor.Shape{batch, d.maxSentLength, d.cfg.HiddenSize}, encoderOutputs.Shape())
	}

	// score from the embedding and the topmost hidden layer
	lastHidden := hidden.H.Select(0, d.cfg.Layers-1)
	scores := d.attn.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{embedded, lastHidden}, 1))
	attnWeights := scores.Softmax(1)

	applied := attnWeights.Unsqueeze(1).BatchMatMul(encoderOutputs).Squeeze(1)
	combined := d.attnCombine.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{embedded, applied}, 1))

	output, hidden, err := d.core.Step(combined, hidden)
	if err != nil {
		return nil, Hidden[B]{}, nil, err
	}
	output = d.drop.Forward(output)

	return d.project(output), hidden, attnWeights, nil
}

// StateDict returns every parameter keyed by name.
func (d *NaiveAttention[B]) StateDict() map[string]*tensor.RawTensor {
	dict := d.baseStateDict()
	mergeStateDict(dict, "attn", d.attn.StateDict())
	mergeStateDict(dict, "attn_combine", d.attnCombine.StateDict())
	return dict
}

// LoadStateDict restores every parameter from a StateDict.
func (d *NaiveAttention[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := d.baseLoadStateDict(stateDict); err != nil {
		return err
	}
	if err := d.attn.LoadStateDict(subStateDict(stateDict, "attn")); err != nil {
		return err
	}
	return d.attnCombine.LoadStateDict(subStateDict(stateDict, "attn_combine"))
}
