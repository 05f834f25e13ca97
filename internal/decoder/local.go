package decoder

import (
	"github.com/nextquery/nextquery/internal/nn"
	"github.com/nextquery/nextquery/internal/tensor"
)

// DefaultWindowSize is the local-attention window width used when no
// override is given.
const DefaultWindowSize = 3

// LocalAttention extends the bilinear scoring of GlobalAttention with
// a predicted aligned position per batch row (Luong local-p): a
// Gaussian emphasis centered at the prediction is multiplied into the
// normalized scores, deliberately breaking exact normalization, and
// the aggregated context is scaled down by the raw source length.
// Unlike the global variant it threads no context across steps.
type LocalAttention[B tensor.Backend] struct {
	base[B]
	weight      *nn.Parameter[B]
	weightP     *nn.Parameter[B]
	weightV     *nn.Parameter[B]
	attnCombine *nn.Linear[B]
	windowSize  int
}

// LocalOption customizes LocalAttention construction.
type LocalOption func(*localConfig)

type localConfig struct {
	windowSize int
}

// WithWindowSize overrides the Gaussian emphasis window width.
func WithWindowSize(size int) LocalOption {
	return func(c *localConfig) { c.windowSize = size }
}

// NewLocalAttention builds the windowed-attention decoder.
func NewLocalAttention[B tensor.Backend](vocabSize int, cfg Config, backend B, opts ...LocalOption) (*LocalAttention[B], error) {
	b, err := newBase(vocabSize, cfg, cfg.EmbedSize, backend)
	if err != nil {
		return nil, err
	}

	lc := localConfig{windowSize: DefaultWindowSize}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.windowSize < 1 {
		return nil, configErrorf("window size must be positive, got %d", lc.windowSize)
	}

	h := cfg.HiddenSize
	return &LocalAttention[B]{
		base:        b,
		weight:      nn.NewParameter("weight", tensor.XavierNormal(h, h, tensor.Shape{h, h}, backend)),
		weightP:     nn.NewParameter("weight_p", tensor.XavierNormal(h, h, tensor.Shape{h, h}, backend)),
		weightV:     nn.NewParameter("weight_v", tensor.XavierNormal(1, h, tensor.Shape{1, h}, backend)),
		attnCombine: nn.NewLinear(2*h, h, backend),
		windowSize:  lc.windowSize,
	}, nil
}

// WindowSize returns the Gaussian emphasis window width.
func (d *LocalAttention[B]) WindowSize() int { return d.windowSize }

// Forward advances one decoding step. encoderOutputs is
// [batch, srcLen, hidden]. The returned attention weights
// [batch, srcLen] are non-negative but do not sum to 1: the emphasis
// term has already been multiplied in.
func (d *LocalAttention[B]) Forward(input *tensor.Tensor[int32, B], hidden Hidden[B], encoderOutputs *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], Hidden[B], *tensor.Tensor[float32, B], error) {
	embedded, err := d.embed(input)
	if err != nil {
		return nil, Hidden[B]{}, nil, err
	}
	batch := embedded.Shape()[0]

	srcLen, err := d.checkEncoderOutputs(encoderOutputs, batch)
	if err != nil {
		return nil, Hidden[B]{}, nil, err
	}

	output, hidden, err := d.core.Step(embedded, hidden)
	if err != nil {
		return nil, Hidden[B]{}, nil, err
	}

	scores := d.bilinearScores(output, encoderOutputs)
	attnWeights := scores.Softmax(1).Mul(d.emphasis(output, batch, srcLen))

	context := attnWeights.Unsqueeze(1).BatchMatMul(encoderOutputs).DivScalar(float32(srcLen))
	combined := d.attnCombine.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{context.Squeeze(1), output}, 1))
	return d.project(combined), hidden, attnWeights, nil
}

// bilinearScores computes output · W · encoderOutputsᵗ, [batch, srcLen].
func (d *LocalAttention[B]) bilinearScores(output, encoderOutputs *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	batch := encoderOutputs.Shape()[0]
	h := d.cfg.HiddenSize

	w := d.weight.Tensor().Unsqueeze(0).Expand(tensor.Shape{batch, h, h})
	weighted := w.BatchMatMul(encoderOutputs.Transpose(0, 2, 1))
	return output.Unsqueeze(1).BatchMatMul(weighted).Squeeze(1)
}

// emphasis builds the Gaussian window term per batch row:
// exp(-(s - p_t)^2 / (2 (D/2)^2)) over source positions s, centered
// at the predicted aligned position.
func (d *LocalAttention[B]) emphasis(output *tensor.Tensor[float32, B], batch, srcLen int) *tensor.Tensor[float32, B] {
	pt := d.PredictPosition(output, srcLen)

	positions := tensor.Arange(0, srcLen, d.backend).Unsqueeze(0).Expand(tensor.Shape{batch, srcLen})
	diff := positions.Sub(pt.Unsqueeze(1).Expand(tensor.Shape{batch, srcLen}))

	halfWindow := float32(d.windowSize) / 2
	return diff.Mul(diff).DivScalar(-2 * halfWindow * halfWindow).Exp()
}

// PredictPosition computes the aligned position
// p_t = srcLen * sigmoid(w_v tanh(W_p output^t)) for each batch row.
// The sigmoid keeps it inside [0, srcLen) for any finite input.
func (d *LocalAttention[B]) PredictPosition(output *tensor.Tensor[float32, B], srcLen int) *tensor.Tensor[float32, B] {
	batch := output.Shape()[0]
	h := d.cfg.HiddenSize

	wp := d.weightP.Tensor().Unsqueeze(0).Expand(tensor.Shape{batch, h, h})
	wv := d.weightV.Tensor().Unsqueeze(0).Expand(tensor.Shape{batch, 1, h})
	projected := wp.BatchMatMul(output.Unsqueeze(1).Transpose(0, 2, 1)).Tanh()
	return wv.BatchMatMul(projected).Squeeze(2).Squeeze(1).Sigmoid().MulScalar(float32(srcLen))
}

// StateDict returns every parameter keyed by name.
func (d *LocalAttention[B]) StateDict() map[string]*tensor.RawTensor {
	dict := d.baseStateDict()
	dict["weight"] = d.weight.Tensor().Raw()
	dict["weight_p"] = d.weightP.Tensor().Raw()
	dict["weight_v"] = d.weightV.Tensor().Raw()
	mergeStateDict(dict, "attn_combine", d.attnCombine.StateDict())
	return dict
}

// LoadStateDict restores every parameter from a StateDict.
func (d *LocalAttention[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := d.baseLoadStateDict(stateDict); err != nil {
		return err
	}
	for name, dst := range map[string]*tensor.RawTensor{
		"weight":   d.weight.Tensor().Raw(),
		"weight_p": d.weightP.Tensor().Raw(),
		"weight_v": d.weightV.Tensor().Raw(),
	} {
		if err := loadRaw(stateDict, name, dst); err != nil {
			return err
		}
	}
	return d.attnCombine.LoadStateDict(subStateDict(stateDict, "attn_combine"))
}
