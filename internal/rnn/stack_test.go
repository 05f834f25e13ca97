package rnn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextquery/nextquery/internal/backend/cpu"
	"github.com/nextquery/nextquery/internal/tensor"
)

func TestParseKind(t *testing.T) {
	for _, tt := range []struct {
		name string
		want Kind
	}{
		{"LSTM", LSTM},
		{"GRU", GRU},
		{"RNN_TANH", RNNTanh},
		{"RNN_RELU", RNNReLU},
	} {
		got, err := ParseKind(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.name, got.String())
	}
}

func TestParseKindRejectsUnknownModel(t *testing.T) {
	_, err := ParseKind("BILSTM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestInitStateShapes(t *testing.T) {
	backend := cpu.New()

	lstm, err := NewStack(LSTM, 4, 6, 2, backend)
	require.NoError(t, err)
	st := lstm.InitState(3)
	assert.Equal(t, tensor.Shape{2, 3, 6}, st.H.Shape())
	require.NotNil(t, st.C)
	assert.Equal(t, tensor.Shape{2, 3, 6}, st.C.Shape())
	for _, v := range st.H.Data() {
		assert.Zero(t, v)
	}

	gru, err := NewStack(GRU, 4, 6, 2, backend)
	require.NoError(t, err)
	assert.Nil(t, gru.InitState(3).C)
}

func TestStepShapesAllKinds(t *testing.T) {
	backend := cpu.New()
	x := tensor.Ones[float32](tensor.Shape{2, 4}, backend)

	for _, kind := range []Kind{LSTM, GRU, RNNTanh, RNNReLU} {
		stack, err := NewStack(kind, 4, 6, 3, backend)
		require.NoError(t, err, kind.String())

		out, next, err := stack.Step(x, stack.InitState(2))
		require.NoError(t, err, kind.String())
		assert.Equal(t, tensor.Shape{2, 6}, out.Shape(), kind.String())
		assert.Equal(t, tensor.Shape{3, 2, 6}, next.H.Shape(), kind.String())
		if kind.HasCellState() {
			assert.NotNil(t, next.C, kind.String())
		} else {
			assert.Nil(t, next.C, kind.String())
		}
	}
}

func TestStepOutputMatchesLastLayerOfState(t *testing.T) {
	backend := cpu.New()
	stack, err := NewStack(GRU, 3, 5, 2, backend)
	require.NoError(t, err)

	x := tensor.Full[float32](tensor.Shape{2, 3}, 0.5, backend)
	out, next, err := stack.Step(x, stack.InitState(2))
	require.NoError(t, err)

	last := next.H.Select(0, 1)
	assert.Equal(t, out.Data(), last.Data())
}

func TestStepAdvancesState(t *testing.T) {
	backend := cpu.New()
	stack, err := NewStack(LSTM, 3, 4, 1, backend)
	require.NoError(t, err)

	x := tensor.Ones[float32](tensor.Shape{1, 3}, backend)
	_, st1, err := stack.Step(x, stack.InitState(1))
	require.NoError(t, err)
	out2, st2, err := stack.Step(x, st1)
	require.NoError(t, err)

	// same input, different state, so the output must move
	assert.NotEqual(t, st1.H.Data(), st2.H.Data())
	assert.Equal(t, tensor.Shape{1, 4}, out2.Shape())
}

func TestStepShapeErrors(t *testing.T) {
	backend := cpu.New()
	stack, err := NewStack(GRU, 3, 4, 2, backend)
	require.NoError(t, err)

	badInput := tensor.Ones[float32](tensor.Shape{2, 5}, backend)
	_, _, err = stack.Step(badInput, stack.InitState(2))
	assert.Error(t, err)

	x := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
	badState := State[*cpu.CPUBackend]{H: tensor.Zeros[float32](tensor.Shape{1, 2, 4}, backend)}
	_, _, err = stack.Step(x, badState)
	assert.Error(t, err)

	// a cell state on a GRU is a caller bug
	withC := stack.InitState(2)
	withC.C = tensor.Zeros[float32](tensor.Shape{2, 2, 4}, backend)
	_, _, err = stack.Step(x, withC)
	assert.Error(t, err)
}

func TestNewStackRejectsBadConfig(t *testing.T) {
	backend := cpu.New()

	_, err := NewStack(Kind(99), 3, 4, 1, backend)
	assert.Error(t, err)

	_, err = NewStack(GRU, 3, 4, 0, backend)
	assert.Error(t, err)

	_, err = NewStack(GRU, 0, 4, 1, backend)
	assert.Error(t, err)
}

func TestInputReLUMasksNegativeInput(t *testing.T) {
	backend := cpu.New()

	plain, err := NewStack(RNNTanh, 2, 3, 1, backend)
	require.NoError(t, err)
	rectified, err := NewStack(RNNTanh, 2, 3, 1, backend, WithInputReLU())
	require.NoError(t, err)
	require.NoError(t, rectified.LoadStateDict(plain.StateDict()))

	neg := tensor.Full[float32](tensor.Shape{1, 2}, -1, backend)
	zero := tensor.Zeros[float32](tensor.Shape{1, 2}, backend)

	outNeg, _, err := rectified.Step(neg, rectified.InitState(1))
	require.NoError(t, err)
	outZero, _, err := plain.Step(zero, plain.InitState(1))
	require.NoError(t, err)

	// relu turns the all-negative input into the zero input
	assert.Equal(t, outZero.Data(), outNeg.Data())
}

func TestStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	src, err := NewStack(LSTM, 3, 4, 2, backend)
	require.NoError(t, err)
	dst, err := NewStack(LSTM, 3, 4, 2, backend)
	require.NoError(t, err)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	x := tensor.Full[float32](tensor.Shape{2, 3}, 0.25, backend)
	outSrc, _, err := src.Step(x, src.InitState(2))
	require.NoError(t, err)
	outDst, _, err := dst.Step(x, dst.InitState(2))
	require.NoError(t, err)
	assert.Equal(t, outSrc.Data(), outDst.Data())
}

func TestLoadStateDictMissingKey(t *testing.T) {
	backend := cpu.New()
	stack, err := NewStack(GRU, 3, 4, 1, backend)
	require.NoError(t, err)

	dict := stack.StateDict()
	delete(dict, "layers.0.hh.bias")
	assert.Error(t, stack.LoadStateDict(dict))
}

func TestGRUStepIsBounded(t *testing.T) {
	backend := cpu.New()
	stack, err := NewStack(GRU, 2, 3, 1, backend)
	require.NoError(t, err)

	x := tensor.Full[float32](tensor.Shape{1, 2}, 10, backend)
	st := stack.InitState(1)
	var out *tensor.Tensor[float32, *cpu.CPUBackend]
	for i := 0; i < 20; i++ {
		out, st, err = stack.Step(x, st)
		require.NoError(t, err)
	}
	for _, v := range out.Data() {
		assert.LessOrEqual(t, v, float32(1))
		assert.GreaterOrEqual(t, v, float32(-1))
	}
}
