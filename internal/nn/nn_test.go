package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextquery/nextquery/internal/backend/cpu"
	"github.com/nextquery/nextquery/internal/tensor"
)

func TestLinearForwardKnownValues(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 3, backend)

	// overwrite the random init with known weights
	copy(lin.Weight().Tensor().Data(), []float32{
		1, 0,
		0, 1,
		1, 1,
	})
	copy(lin.Bias().Tensor().Data(), []float32{10, 20, 30})

	x, err := tensor.FromSlice([]float32{2, 3}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	out := lin.Forward(x)
	assert.Equal(t, tensor.Shape{1, 3}, out.Shape())
	assert.InDeltaSlice(t, []float32{12, 23, 35}, out.Data(), 1e-5)
}

func TestLinearForwardRejectsBadShape(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 3, backend)

	bad := tensor.Zeros[float32](tensor.Shape{1, 4}, backend)
	assert.Panics(t, func() { lin.Forward(bad) })
}

func TestLinearParametersAndStateDict(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(4, 2, backend)

	params := lin.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "weight", params[0].Name())
	assert.Equal(t, "bias", params[1].Name())

	other := NewLinear(4, 2, backend)
	require.NoError(t, other.LoadStateDict(lin.StateDict()))
	assert.Equal(t, lin.Weight().Tensor().Data(), other.Weight().Tensor().Data())

	wrong := NewLinear(3, 2, backend)
	assert.Error(t, wrong.LoadStateDict(lin.StateDict()))
}

func TestXavierStaysInBound(t *testing.T) {
	backend := cpu.New()
	w := Xavier(100, 100, tensor.Shape{100, 100}, backend)

	bound := math.Sqrt(6.0 / 200.0)
	for _, v := range w.Data() {
		assert.LessOrEqual(t, math.Abs(float64(v)), bound)
	}
}

func TestEmbeddingForwardLooksUpRows(t *testing.T) {
	backend := cpu.New()
	emb := NewEmbedding(3, 2, backend)
	copy(emb.Weight.Tensor().Data(), []float32{0, 1, 10, 11, 20, 21})

	ids, err := tensor.FromSlice([]int32{2, 0}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	out := emb.Forward(ids)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{20, 21, 0, 1}, out.Data())
}

type wordList []string

func (w wordList) Len() int          { return len(w) }
func (w wordList) Word(id int) string { return w[id] }

func TestInitPretrainedCopiesAndFallsBack(t *testing.T) {
	backend := cpu.New()
	emb := NewEmbedding(3, 2, backend)

	vocab := wordList{"known", "unknown", "other"}
	table := map[string][]float32{
		"known": {0.5, -0.5},
		"other": {1.5, 2.5},
	}

	require.NoError(t, emb.InitPretrained(vocab, table, nil))
	data := emb.Weight.Tensor().Data()
	assert.Equal(t, []float32{0.5, -0.5}, data[0:2])
	assert.Equal(t, []float32{1.5, 2.5}, data[4:6])
}

func TestInitPretrainedRejectsSizeMismatch(t *testing.T) {
	backend := cpu.New()
	emb := NewEmbedding(3, 2, backend)

	assert.Error(t, emb.InitPretrained(wordList{"a"}, nil, nil))

	badDim := map[string][]float32{"a": {1, 2, 3}}
	assert.Error(t, emb.InitPretrained(wordList{"a", "b", "c"}, badDim, nil))
}

func TestDropoutEvalIsIdentity(t *testing.T) {
	backend := cpu.New()
	drop := NewDropout[*cpu.CPUBackend](0.5)

	x := tensor.Ones[float32](tensor.Shape{4, 4}, backend)
	out := drop.Forward(x)
	assert.Equal(t, x.Data(), out.Data())
}

func TestDropoutTrainingMasksAndScales(t *testing.T) {
	backend := cpu.New()
	drop := NewDropout[*cpu.CPUBackend](0.5)
	drop.Train(true)
	drop.Seed(1)

	x := tensor.Ones[float32](tensor.Shape{100, 100}, backend)
	out := drop.Forward(x)

	var zeros, kept int
	for _, v := range out.Data() {
		switch v {
		case 0:
			zeros++
		case 2:
			kept++
		default:
			t.Fatalf("unexpected value %v, want 0 or 2", v)
		}
	}
	// roughly half the elements survive
	assert.InDelta(t, 5000, zeros, 500)
	assert.Equal(t, len(out.Data()), zeros+kept)

	// the input itself is untouched
	assert.Equal(t, float32(1), x.Data()[0])
}

func TestNewDropoutRejectsBadProbability(t *testing.T) {
	assert.Panics(t, func() { NewDropout[*cpu.CPUBackend](1.0) })
	assert.Panics(t, func() { NewDropout[*cpu.CPUBackend](-0.1) })
}
