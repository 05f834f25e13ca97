package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/nextquery/nextquery/internal/tensor"
)

// MatMul performs 2D matrix multiplication through BLAS sgemm:
// (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: requires 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions do not match: %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result := tensor.MustNewRaw(tensor.Shape{m, n}, tensor.Float32)
	gemm(m, k, n, a.AsFloat32(), b.AsFloat32(), result.AsFloat32())
	return result
}

// BatchMatMul performs batched matrix multiplication:
// (B, M, K) @ (B, K, N) -> (B, M, N).
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 3 || len(bShape) != 3 {
		panic(fmt.Sprintf("batchmatmul: requires 3D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[0] != bShape[0] {
		panic(fmt.Sprintf("batchmatmul: batch sizes do not match: %v @ %v", aShape, bShape))
	}
	if aShape[2] != bShape[1] {
		panic(fmt.Sprintf("batchmatmul: inner dimensions do not match: %v @ %v", aShape, bShape))
	}

	batch, m, k, n := aShape[0], aShape[1], aShape[2], bShape[2]
	result := tensor.MustNewRaw(tensor.Shape{batch, m, n}, tensor.Float32)

	av, bv, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	for i := 0; i < batch; i++ {
		gemm(m, k, n, av[i*m*k:(i+1)*m*k], bv[i*k*n:(i+1)*k*n], out[i*m*n:(i+1)*m*n])
	}
	return result
}

// gemm computes c = a @ b for row-major float32 buffers.
func gemm(m, k, n int, a, b, c []float32) {
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: m, Cols: k, Stride: k, Data: a},
		blas32.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		blas32.General{Rows: m, Cols: n, Stride: n, Data: c})
}
