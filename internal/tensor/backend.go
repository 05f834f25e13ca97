package tensor

// Backend defines the compute substrate for tensor operations. The
// decoder stack treats it as an opaque, synchronous executor: every
// operation consumes raw tensors and returns a freshly allocated
// result (or a view, for pure shape operations). Implementations may
// vectorize across the batch dimension internally but must not
// require concurrency for correctness.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	// MatMul: (M, K) @ (K, N) -> (M, N).
	// BatchMatMul: (B, M, K) @ (B, K, N) -> (B, M, N).
	MatMul(a, b *RawTensor) *RawTensor
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Scalar operations.
	AddScalar(x *RawTensor, scalar float32) *RawTensor
	MulScalar(x *RawTensor, scalar float32) *RawTensor
	DivScalar(x *RawTensor, scalar float32) *RawTensor

	// Element-wise math and activations.
	Exp(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor

	// Softmax and LogSoftmax along a dimension (negative indexing
	// allowed). Both use the max-subtraction trick for stability.
	Softmax(x *RawTensor, dim int) *RawTensor
	LogSoftmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Manipulation.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Indexing.
	// Select reduces x along dim to the slice at index.
	Select(x *RawTensor, dim, index int) *RawTensor
	// Embedding looks up rows of weight [V, D] by int32 indices.
	Embedding(weight, indices *RawTensor) *RawTensor

	// Metadata.
	Name() string
}
