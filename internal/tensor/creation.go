package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy))
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float tensor drawn from N(0, 1) using the given
// source. A nil source falls back to the global math/rand source.
// Note: math/rand (not crypto/rand) is intentional for ML weights.
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	normFloat64 := rand.NormFloat64
	if rng != nil {
		normFloat64 = rng.NormFloat64
	}
	for i := range data {
		data[i] = float32(normFloat64())
	}
	return t
}

// XavierNormal creates a tensor drawn from N(0, std^2) with
// std = sqrt(2 / (fanIn + fanOut)), the Glorot normal scheme used
// for the attention weight matrices.
func XavierNormal[B Backend](fanIn, fanOut int, shape Shape, b B) *Tensor[float32, B] {
	std := math.Sqrt(2.0 / float64(fanIn+fanOut))
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand is appropriate for weight initialization
		data[i] = float32(rand.NormFloat64() * std)
	}
	return t
}

// Arange creates a 1D float32 tensor [start, start+1, ..., end-1].
// Used to build source-position grids for windowed attention.
func Arange[B Backend](start, end int, b B) *Tensor[float32, B] {
	if end <= start {
		panic("tensor: Arange requires end > start")
	}
	t := Zeros[float32, B](Shape{end - start}, b)
	data := t.Data()
	for i := range data {
		data[i] = float32(start + i)
	}
	return t
}
