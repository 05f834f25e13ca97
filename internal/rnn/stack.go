package rnn

import (
	"fmt"

	"github.com/nextquery/nextquery/internal/nn"
	"github.com/nextquery/nextquery/internal/tensor"
)

// State is the recurrent state threaded across time steps. H is
// [layers, batch, hidden]; C has the same shape and is non-nil only
// for LSTM stacks.
type State[B tensor.Backend] struct {
	H *tensor.Tensor[float32, B]
	C *tensor.Tensor[float32, B]
}

// Stack is a multi-layer recurrent core advanced one time step at a
// time. Layer 0 consumes the configured input size; deeper layers
// consume the previous layer's hidden output.
type Stack[B tensor.Backend] struct {
	kind       Kind
	inputSize  int
	hiddenSize int
	numLayers  int
	inputReLU  bool
	cells      []cell[B]
	backend    B
}

// StackOption customizes Stack construction.
type StackOption func(*stackConfig)

type stackConfig struct {
	inputReLU bool
}

// WithInputReLU rectifies each layer's input before the cell sees it.
func WithInputReLU() StackOption {
	return func(c *stackConfig) { c.inputReLU = true }
}

// NewStack builds a recurrent core of numLayers cells of the given
// kind.
func NewStack[B tensor.Backend](kind Kind, inputSize, hiddenSize, numLayers int, backend B, opts ...StackOption) (*Stack[B], error) {
	if !kind.valid() {
		return nil, fmt.Errorf("invalid model %q, options are ['LSTM', 'GRU', 'RNN_TANH', 'RNN_RELU']", kind.String())
	}
	if inputSize < 1 || hiddenSize < 1 {
		return nil, fmt.Errorf("input size %d and hidden size %d must be positive", inputSize, hiddenSize)
	}
	if numLayers < 1 {
		return nil, fmt.Errorf("number of layers must be at least 1, got %d", numLayers)
	}

	var cfg stackConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cells := make([]cell[B], numLayers)
	for l := range cells {
		in := inputSize
		if l > 0 {
			in = hiddenSize
		}
		cells[l] = newCell(kind, in, hiddenSize, backend)
	}

	return &Stack[B]{
		kind:       kind,
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		numLayers:  numLayers,
		inputReLU:  cfg.inputReLU,
		cells:      cells,
		backend:    backend,
	}, nil
}

// Kind returns the cell variant.
func (s *Stack[B]) Kind() Kind { return s.kind }

// InputSize returns layer 0's input width.
func (s *Stack[B]) InputSize() int { return s.inputSize }

// HiddenSize returns the per-layer hidden width.
func (s *Stack[B]) HiddenSize() int { return s.hiddenSize }

// NumLayers returns the layer count.
func (s *Stack[B]) NumLayers() int { return s.numLayers }

// InitState returns the zero state for a batch: H of shape
// [layers, batch, hidden], paired with a zero C for LSTM.
func (s *Stack[B]) InitState(batch int) State[B] {
	shape := tensor.Shape{s.numLayers, batch, s.hiddenSize}
	st := State[B]{H: tensor.Zeros[float32](shape, s.backend)}
	if s.kind.HasCellState() {
		st.C = tensor.Zeros[float32](shape, s.backend)
	}
	return st
}

// Step advances every layer by one time step. x is
// [batch, inputSize]; the returned output is the last layer's hidden
// output [batch, hiddenSize] alongside the full new state.
func (s *Stack[B]) Step(x *tensor.Tensor[float32, B], st State[B]) (*tensor.Tensor[float32, B], State[B], error) {
	if err := s.checkStep(x, st); err != nil {
		return nil, State[B]{}, err
	}

	hs := make([]*tensor.Tensor[float32, B], s.numLayers)
	var cs []*tensor.Tensor[float32, B]
	if s.kind.HasCellState() {
		cs = make([]*tensor.Tensor[float32, B], s.numLayers)
	}

	layerInput := x
	for l, c := range s.cells {
		if s.inputReLU {
			layerInput = layerInput.ReLU()
		}
		hPrev := st.H.Select(0, l)
		var cPrev *tensor.Tensor[float32, B]
		if cs != nil {
			cPrev = st.C.Select(0, l)
		}

		hNew, cNew := c.step(layerInput, hPrev, cPrev)
		hs[l] = hNew
		if cs != nil {
			cs[l] = cNew
		}
		layerInput = hNew
	}

	next := State[B]{H: tensor.Stack(hs, 0)}
	if cs != nil {
		next.C = tensor.Stack(cs, 0)
	}
	return hs[s.numLayers-1], next, nil
}

func (s *Stack[B]) checkStep(x *tensor.Tensor[float32, B], st State[B]) error {
	xShape := x.Shape()
	if len(xShape) != 2 || xShape[1] != s.inputSize {
		return fmt.Errorf("step input shape %v, want [batch, %d]", xShape, s.inputSize)
	}
	batch := xShape[0]

	want := tensor.Shape{s.numLayers, batch, s.hiddenSize}
	if st.H == nil || !st.H.Shape().Equal(want) {
		return fmt.Errorf("hidden state shape mismatch: want %v", want)
	}
	if s.kind.HasCellState() {
		if st.C == nil || !st.C.Shape().Equal(want) {
			return fmt.Errorf("cell state shape mismatch: want %v", want)
		}
	} else if st.C != nil {
		return fmt.Errorf("cell state provided for %s, which keeps none", s.kind)
	}
	return nil
}

// Parameters returns every cell's projection parameters, layer by
// layer.
func (s *Stack[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, c := range s.cells {
		params = append(params, c.ih().Parameters()...)
		params = append(params, c.hh().Parameters()...)
	}
	return params
}

// StateDict returns all stack weights keyed layers.<l>.<ih|hh>.<weight|bias>.
func (s *Stack[B]) StateDict() map[string]*tensor.RawTensor {
	dict := make(map[string]*tensor.RawTensor, 4*s.numLayers)
	for l, c := range s.cells {
		for name, raw := range c.ih().StateDict() {
			dict[fmt.Sprintf("layers.%d.ih.%s", l, name)] = raw
		}
		for name, raw := range c.hh().StateDict() {
			dict[fmt.Sprintf("layers.%d.hh.%s", l, name)] = raw
		}
	}
	return dict
}

// LoadStateDict copies stack weights from a state dictionary produced
// by StateDict, validating shapes.
func (s *Stack[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for l, c := range s.cells {
		if err := loadLinear(stateDict, fmt.Sprintf("layers.%d.ih", l), c.ih()); err != nil {
			return err
		}
		if err := loadLinear(stateDict, fmt.Sprintf("layers.%d.hh", l), c.hh()); err != nil {
			return err
		}
	}
	return nil
}

func loadLinear[B tensor.Backend](stateDict map[string]*tensor.RawTensor, prefix string, lin *nn.Linear[B]) error {
	sub := make(map[string]*tensor.RawTensor, 2)
	for _, name := range []string{"weight", "bias"} {
		raw, ok := stateDict[prefix+"."+name]
		if !ok {
			return fmt.Errorf("missing %s.%s in state dict", prefix, name)
		}
		sub[name] = raw
	}
	if err := lin.LoadStateDict(sub); err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	return nil
}
