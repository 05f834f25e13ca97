package decoder

import (
	"github.com/nextquery/nextquery/internal/nn"
	"github.com/nextquery/nextquery/internal/tensor"
)

// GlobalAttention implements Luong-style global attention: the
// recurrent output is scored against every encoder position through
// a learned bilinear form, and the previous step's context vector is
// part of the recurrent input. The decode loop seeds that context
// with InitContext before the first step and threads each returned
// context into the next call.
type GlobalAttention[B tensor.Backend] struct {
	base[B]
	weight      *nn.Parameter[B]
	attnCombine *nn.Linear[B]
}

// NewGlobalAttention builds the global-attention decoder.
func NewGlobalAttention[B tensor.Backend](vocabSize int, cfg Config, backend B) (*GlobalAttention[B], error) {
	// recurrent input is the embedding concatenated with last_context
	b, err := newBase(vocabSize, cfg, cfg.EmbedSize+cfg.HiddenSize, backend)
	if err != nil {
		return nil, err
	}

	h := cfg.HiddenSize
	return &GlobalAttention[B]{
		base:        b,
		weight:      nn.NewParameter("weight", tensor.XavierNormal(h, h, tensor.Shape{h, h}, backend)),
		attnCombine: nn.NewLinear(2*h, h, backend),
	}, nil
}

// InitContext returns the zero context vector [batch, 1, hidden] the
// first step consumes as lastContext.
func (d *GlobalAttention[B]) InitContext(batch int) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](tensor.Shape{batch, 1, d.cfg.HiddenSize}, d.backend)
}

// Forward advances one decoding step. lastContext is [batch, 1,
// hidden] from the previous step (or InitContext), encoderOutputs is
// [batch, srcLen, hidden]. It returns log-probabilities, the new
// hidden state, the new context vector and the attention weights
// [batch, srcLen].
func (d *GlobalAttention[B]) Forward(input *tensor.Tensor[int32, B], hidden Hidden[B], lastContext, encoderOutputs *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], Hidden[B], *tensor.Tensor[float32, B], *tensor.Tensor[float32, B], error) {
	embedded, err := d.embed(input)
	if err != nil {
		return nil, Hidden[B]{}, nil, nil, err
	}
	batch := embedded.Shape()[0]

	if _, err := d.checkEncoderOutputs(encoderOutputs, batch); err != nil {
		return nil, Hidden[B]{}, nil, nil, err
	}
	wantCtx := tensor.Shape{batch, 1, d.cfg.HiddenSize}
	if !lastContext.Shape().Equal(wantCtx) {
		return nil, Hidden[B]{}, nil, nil, shapeError("last context", wantCtx, lastContext.Shape())
	}

	stepInput := tensor.Cat([]*tensor.Tensor[float32, B]{embedded, lastContext.Squeeze(1)}, 1)
	output, hidden, err := d.core.Step(stepInput, hidden)
	if err != nil {
		return nil, Hidden[B]{}, nil, nil, err
	}

	attnWeights := d.bilinearScores(output, encoderOutputs).Softmax(1)
	context := attnWeights.Unsqueeze(1).BatchMatMul(encoderOutputs)

	combined := d.attnCombine.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{context.Squeeze(1), output}, 1))
	return d.project(combined), hidden, context, attnWeights, nil
}

// bilinearScores computes output · W · encoderOutputsᵗ for every
// source position at once: [batch, srcLen] raw scores.
func (d *GlobalAttention[B]) bilinearScores(output, encoderOutputs *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	batch := encoderOutputs.Shape()[0]
	h := d.cfg.HiddenSize

	w := d.weight.Tensor().Unsqueeze(0).Expand(tensor.Shape{batch, h, h})
	weighted := w.BatchMatMul(encoderOutputs.Transpose(0, 2, 1))
	return output.Unsqueeze(1).BatchMatMul(weighted).Squeeze(1)
}

// StateDict returns every parameter keyed by name.
func (d *GlobalAttention[B]) StateDict() map[string]*tensor.RawTensor {
	dict := d.baseStateDict()
	dict["weight"] = d.weight.Tensor().Raw()
	mergeStateDict(dict, "attn_combine", d.attnCombine.StateDict())
	return dict
}

// LoadStateDict restores every parameter from a StateDict.
func (d *GlobalAttention[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := d.baseLoadStateDict(stateDict); err != nil {
		return err
	}
	if err := loadRaw(stateDict, "weight", d.weight.Tensor().Raw()); err != nil {
		return err
	}
	return d.attnCombine.LoadStateDict(subStateDict(stateDict, "attn_combine"))
}
