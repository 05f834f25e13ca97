package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextquery/nextquery/internal/tensor"
)

func rawF32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func rawI32(t *testing.T, shape tensor.Shape, data []int32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Int32)
	require.NoError(t, err)
	copy(raw.AsInt32(), data)
	return raw
}

func TestAddSameShape(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	y := rawF32(t, tensor.Shape{2, 2}, []float32{10, 20, 30, 40})

	out := b.Add(x, y)
	assert.Equal(t, []float32{11, 22, 33, 44}, out.AsFloat32())
}

func TestAddBroadcastsRow(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	bias := rawF32(t, tensor.Shape{1, 3}, []float32{10, 20, 30})

	out := b.Add(x, bias)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out.AsFloat32())
}

func TestMulAndDiv(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{3}, []float32{2, 4, 6})
	y := rawF32(t, tensor.Shape{3}, []float32{2, 2, 3})

	assert.Equal(t, []float32{4, 8, 18}, b.Mul(x, y).AsFloat32())
	assert.Equal(t, []float32{1, 2, 2}, b.Div(x, y).AsFloat32())
}

func TestMatMulKnownValues(t *testing.T) {
	b := New()
	// [1 2; 3 4] @ [5 6; 7 8] = [19 22; 43 50]
	x := rawF32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	y := rawF32(t, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})

	out := b.MatMul(x, y)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.InDeltaSlice(t, []float32{19, 22, 43, 50}, out.AsFloat32(), 1e-5)
}

func TestBatchMatMul(t *testing.T) {
	b := New()
	// batch of two 1x2 @ 2x1 products
	x := rawF32(t, tensor.Shape{2, 1, 2}, []float32{1, 2, 3, 4})
	y := rawF32(t, tensor.Shape{2, 2, 1}, []float32{5, 6, 7, 8})

	out := b.BatchMatMul(x, y)
	assert.Equal(t, tensor.Shape{2, 1, 1}, out.Shape())
	assert.InDeltaSlice(t, []float32{17, 53}, out.AsFloat32(), 1e-5)
}

func TestScalarOps(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2}, []float32{2, 4})

	assert.Equal(t, []float32{5, 7}, b.AddScalar(x, 3).AsFloat32())
	assert.Equal(t, []float32{6, 12}, b.MulScalar(x, 3).AsFloat32())
	assert.Equal(t, []float32{1, 2}, b.DivScalar(x, 2).AsFloat32())
}

func TestActivations(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{3}, []float32{-1, 0, 1})

	relu := b.ReLU(x).AsFloat32()
	assert.Equal(t, []float32{0, 0, 1}, relu)

	sig := b.Sigmoid(x).AsFloat32()
	assert.InDelta(t, 0.5, sig[1], 1e-6)
	assert.InDelta(t, 1/(1+math.Exp(1)), float64(sig[0]), 1e-6)

	tanh := b.Tanh(x).AsFloat32()
	assert.InDelta(t, math.Tanh(-1), float64(tanh[0]), 1e-6)

	exp := b.Exp(x).AsFloat32()
	assert.InDelta(t, math.E, float64(exp[2]), 1e-5)
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 1000, 1001, 1002})

	out := b.Softmax(x, 1).AsFloat32()
	for r := 0; r < 2; r++ {
		var sum float64
		for c := 0; c < 3; c++ {
			sum += float64(out[r*3+c])
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
	// large inputs must not overflow to NaN
	for _, v := range out {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestLogSoftmaxMatchesLogOfSoftmax(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{1, 4}, []float32{0.5, -1, 2, 0})

	ls := b.LogSoftmax(x, 1).AsFloat32()
	sm := b.Softmax(x, 1).AsFloat32()
	for i := range ls {
		assert.InDelta(t, math.Log(float64(sm[i])), float64(ls[i]), 1e-5)
	}
}

func TestSumDim(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	rows := b.SumDim(x, 1, false)
	assert.Equal(t, tensor.Shape{2}, rows.Shape())
	assert.Equal(t, []float32{6, 15}, rows.AsFloat32())

	cols := b.SumDim(x, 0, true)
	assert.Equal(t, tensor.Shape{1, 3}, cols.Shape())
	assert.Equal(t, []float32{5, 7, 9}, cols.AsFloat32())
}

func TestArgmaxTiesToLowestIndex(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 3}, []float32{1, 3, 3, 7, 2, 7})

	out := b.Argmax(x, 1)
	assert.Equal(t, []int32{1, 0}, out.AsInt32())
}

func TestTranspose2D(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	out := b.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.AsFloat32())
}

func TestTransposePermutation(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 3, 4}, make([]float32, 24))
	for i := range x.AsFloat32() {
		x.AsFloat32()[i] = float32(i)
	}

	out := b.Transpose(x, 0, 2, 1)
	assert.Equal(t, tensor.Shape{2, 4, 3}, out.Shape())
	// element [0, 1, 2] of the result is [0, 2, 1] of the input
	assert.Equal(t, float32(2*4+1), out.AsFloat32()[1*3+2])
}

func TestExpand(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{1, 3}, []float32{1, 2, 3})

	out := b.Expand(x, tensor.Shape{2, 3})
	assert.Equal(t, []float32{1, 2, 3, 1, 2, 3}, out.AsFloat32())

	assert.Panics(t, func() { b.Expand(x, tensor.Shape{2, 4}) })
}

func TestCatAlongEachDim(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{1, 2}, []float32{1, 2})
	y := rawF32(t, tensor.Shape{1, 2}, []float32{3, 4})

	rows := b.Cat([]*tensor.RawTensor{x, y}, 0)
	assert.Equal(t, tensor.Shape{2, 2}, rows.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, rows.AsFloat32())

	cols := b.Cat([]*tensor.RawTensor{x, y}, 1)
	assert.Equal(t, tensor.Shape{1, 4}, cols.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, cols.AsFloat32())

	neg := b.Cat([]*tensor.RawTensor{x, y}, -1)
	assert.Equal(t, tensor.Shape{1, 4}, neg.Shape())
}

func TestChunkInverseOfCat(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 5, 6, 7, 8})

	parts := b.Chunk(x, 2, 1)
	require.Len(t, parts, 2)
	assert.Equal(t, []float32{1, 2, 5, 6}, parts[0].AsFloat32())
	assert.Equal(t, []float32{3, 4, 7, 8}, parts[1].AsFloat32())

	back := b.Cat(parts, 1)
	assert.Equal(t, x.AsFloat32(), back.AsFloat32())
}

func TestUnsqueezeSqueeze(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	up := b.Unsqueeze(x, 1)
	assert.Equal(t, tensor.Shape{2, 1, 3}, up.Shape())

	down := b.Squeeze(up, 1)
	assert.Equal(t, tensor.Shape{2, 3}, down.Shape())

	assert.Panics(t, func() { b.Squeeze(x, 0) })
}

func TestSelect(t *testing.T) {
	b := New()
	x := rawF32(t, tensor.Shape{2, 3, 2}, []float32{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	})

	layer := b.Select(x, 0, 1)
	assert.Equal(t, tensor.Shape{3, 2}, layer.Shape())
	assert.Equal(t, []float32{7, 8, 9, 10, 11, 12}, layer.AsFloat32())

	mid := b.Select(x, 1, 2)
	assert.Equal(t, tensor.Shape{2, 2}, mid.Shape())
	assert.Equal(t, []float32{5, 6, 11, 12}, mid.AsFloat32())
}

func TestEmbeddingLookup(t *testing.T) {
	b := New()
	weight := rawF32(t, tensor.Shape{3, 2}, []float32{0, 1, 10, 11, 20, 21})
	ids := rawI32(t, tensor.Shape{2}, []int32{2, 0})

	out := b.Embedding(weight, ids)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{20, 21, 0, 1}, out.AsFloat32())

	bad := rawI32(t, tensor.Shape{1}, []int32{5})
	assert.Panics(t, func() { b.Embedding(weight, bad) })
}

func TestName(t *testing.T) {
	assert.Equal(t, "CPU", New().Name())
}
