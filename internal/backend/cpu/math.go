package cpu

import (
	"fmt"
	"math"

	"github.com/nextquery/nextquery/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return unaryOp("addscalar", x, func(v float32) float32 { return v + scalar })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return unaryOp("mulscalar", x, func(v float32) float32 { return v * scalar })
}

// DivScalar divides every element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return unaryOp("divscalar", x, func(v float32) float32 { return v / scalar })
}

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp("exp", x, func(v float32) float32 { return float32(math.Exp(float64(v))) })
}

// Tanh computes the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp("tanh", x, func(v float32) float32 { return float32(math.Tanh(float64(v))) })
}

// Sigmoid computes the logistic function element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp("sigmoid", x, func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(-float64(v))))
	})
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp("relu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

func unaryOp(name string, x *tensor.RawTensor, op func(float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: requires float32 tensor, got %v", name, x.DType()))
	}
	result := tensor.MustNewRaw(x.Shape(), tensor.Float32)
	in, out := x.AsFloat32(), result.AsFloat32()
	for i := range in {
		out[i] = op(in[i])
	}
	return result
}

// Softmax normalizes along dim into a probability distribution,
// subtracting the row maximum before exponentiation for stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return softmaxImpl(x, dim, false)
}

// LogSoftmax computes log(softmax(x)) along dim via the log-sum-exp
// decomposition, so exp of the result sums to 1 exactly in the
// absence of rounding.
func (cpu *CPUBackend) LogSoftmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return softmaxImpl(x, dim, true)
}

func softmaxImpl(x *tensor.RawTensor, dim int, logOutput bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: requires float32 tensor, got %v", x.DType()))
	}
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: dimension out of range for shape %v", shape))
	}

	result := tensor.MustNewRaw(shape, tensor.Float32)
	in, out := x.AsFloat32(), result.AsFloat32()

	dimSize := shape[dim]
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	outer := x.NumElements() / (dimSize * inner)

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*dimSize*inner + i

			maxVal := in[base]
			for j := 1; j < dimSize; j++ {
				if v := in[base+j*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float64
			for j := 0; j < dimSize; j++ {
				sum += math.Exp(float64(in[base+j*inner] - maxVal))
			}

			if logOutput {
				logSum := float32(math.Log(sum))
				for j := 0; j < dimSize; j++ {
					off := base + j*inner
					out[off] = in[off] - maxVal - logSum
				}
			} else {
				for j := 0; j < dimSize; j++ {
					off := base + j*inner
					out[off] = float32(math.Exp(float64(in[off]-maxVal)) / sum)
				}
			}
		}
	}
	return result
}

// SumDim sums along a dimension, optionally keeping it as size 1.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sumdim: requires float32 tensor, got %v", x.DType()))
	}
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumdim: dimension out of range for shape %v", shape))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, size := range shape {
		switch {
		case d != dim:
			outShape = append(outShape, size)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result := tensor.MustNewRaw(outShape, tensor.Float32)
	in, out := x.AsFloat32(), result.AsFloat32()

	dimSize := shape[dim]
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	outer := x.NumElements() / (dimSize * inner)

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var sum float32
			for j := 0; j < dimSize; j++ {
				sum += in[o*dimSize*inner+j*inner+i]
			}
			out[o*inner+i] = sum
		}
	}
	return result
}

// Argmax returns int32 indices of the maximum along dim, dropping
// that dimension. Ties resolve to the lowest index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: requires float32 tensor, got %v", x.DType()))
	}
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("argmax: dimension out of range for shape %v", shape))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, size := range shape {
		if d != dim {
			outShape = append(outShape, size)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result := tensor.MustNewRaw(outShape, tensor.Int32)
	in, out := x.AsFloat32(), result.AsInt32()

	dimSize := shape[dim]
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	outer := x.NumElements() / (dimSize * inner)

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			best, bestVal := 0, in[o*dimSize*inner+i]
			for j := 1; j < dimSize; j++ {
				if v := in[o*dimSize*inner+j*inner+i]; v > bestVal {
					best, bestVal = j, v
				}
			}
			out[o*inner+i] = int32(best)
		}
	}
	return result
}
