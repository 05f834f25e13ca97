package rnn

import (
	"github.com/nextquery/nextquery/internal/nn"
	"github.com/nextquery/nextquery/internal/tensor"
)

// cell advances one recurrent layer by a single time step. x is
// [batch, in], h and c are [batch, hidden]; c is nil for every
// variant except LSTM, and nil in the result for those variants too.
type cell[B tensor.Backend] interface {
	step(x, h, c *tensor.Tensor[float32, B]) (hNew, cNew *tensor.Tensor[float32, B])
	ih() *nn.Linear[B]
	hh() *nn.Linear[B]
}

// gates shared by every variant: an input projection and a hidden
// projection, each with its own bias.
type cellBase[B tensor.Backend] struct {
	inputProj  *nn.Linear[B]
	hiddenProj *nn.Linear[B]
}

func newCellBase[B tensor.Backend](inputSize, hiddenSize, gateCount int, backend B) cellBase[B] {
	return cellBase[B]{
		inputProj:  nn.NewLinear(inputSize, gateCount*hiddenSize, backend),
		hiddenProj: nn.NewLinear(hiddenSize, gateCount*hiddenSize, backend),
	}
}

func (c *cellBase[B]) ih() *nn.Linear[B] { return c.inputProj }
func (c *cellBase[B]) hh() *nn.Linear[B] { return c.hiddenProj }

// lstmCell carries a separate cell memory behind input, forget and
// output gates. Gate order in the fused projection is i, f, g, o.
type lstmCell[B tensor.Backend] struct {
	cellBase[B]
}

func newLSTMCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *lstmCell[B] {
	return &lstmCell[B]{newCellBase(inputSize, hiddenSize, 4, backend)}
}

func (c *lstmCell[B]) step(x, h, cPrev *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	gates := c.inputProj.Forward(x).Add(c.hiddenProj.Forward(h)).Chunk(4, 1)

	i := gates[0].Sigmoid()
	f := gates[1].Sigmoid()
	g := gates[2].Tanh()
	o := gates[3].Sigmoid()

	cNew := f.Mul(cPrev).Add(i.Mul(g))
	hNew := o.Mul(cNew.Tanh())
	return hNew, cNew
}

// gruCell folds the memory into the hidden state behind reset and
// update gates. Gate order in the fused projection is r, z, n; the
// candidate applies the reset gate to the hidden projection before
// adding the input projection.
type gruCell[B tensor.Backend] struct {
	cellBase[B]
}

func newGRUCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *gruCell[B] {
	return &gruCell[B]{newCellBase(inputSize, hiddenSize, 3, backend)}
}

func (c *gruCell[B]) step(x, h, _ *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	xg := c.inputProj.Forward(x).Chunk(3, 1)
	hg := c.hiddenProj.Forward(h).Chunk(3, 1)

	r := xg[0].Add(hg[0]).Sigmoid()
	z := xg[1].Add(hg[1]).Sigmoid()
	n := xg[2].Add(r.Mul(hg[2])).Tanh()

	// h' = (1-z)*n + z*h, written as n + z*(h-n)
	hNew := n.Add(z.Mul(h.Sub(n)))
	return hNew, nil
}

// plainCell is the ungated recurrence h' = act(Wx + Uh + b) with a
// tanh or relu nonlinearity.
type plainCell[B tensor.Backend] struct {
	cellBase[B]
	relu bool
}

func newPlainCell[B tensor.Backend](inputSize, hiddenSize int, relu bool, backend B) *plainCell[B] {
	return &plainCell[B]{newCellBase(inputSize, hiddenSize, 1, backend), relu}
}

func (c *plainCell[B]) step(x, h, _ *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	pre := c.inputProj.Forward(x).Add(c.hiddenProj.Forward(h))
	if c.relu {
		return pre.ReLU(), nil
	}
	return pre.Tanh(), nil
}

func newCell[B tensor.Backend](kind Kind, inputSize, hiddenSize int, backend B) cell[B] {
	switch kind {
	case LSTM:
		return newLSTMCell(inputSize, hiddenSize, backend)
	case GRU:
		return newGRUCell(inputSize, hiddenSize, backend)
	case RNNTanh:
		return newPlainCell(inputSize, hiddenSize, false, backend)
	default:
		return newPlainCell(inputSize, hiddenSize, true, backend)
	}
}
