package cpu

import (
	"fmt"

	"github.com/nextquery/nextquery/internal/tensor"
)

// Reshape returns a view of the same buffer under a new shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot view %v as %v", t.Shape(), newShape))
	}
	return t.WithShape(newShape)
}

// Transpose permutes dimensions. With no axes, all dimensions are
// reversed. The result is a fresh contiguous tensor.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}
	seen := make([]bool, ndim)
	for _, a := range axes {
		if a < 0 || a >= ndim || seen[a] {
			panic(fmt.Sprintf("transpose: invalid axes %v for shape %v", axes, shape))
		}
		seen[a] = true
	}

	outShape := make(tensor.Shape, ndim)
	for i, a := range axes {
		outShape[i] = shape[a]
	}

	result := tensor.MustNewRaw(outShape, t.DType())
	srcStrides := t.Strides()
	idx := make([]int, ndim)
	n := t.NumElements()
	switch t.DType() {
	case tensor.Float32:
		in, out := t.AsFloat32(), result.AsFloat32()
		for i := 0; i < n; i++ {
			srcOff := 0
			for d := range idx {
				srcOff += idx[d] * srcStrides[axes[d]]
			}
			out[i] = in[srcOff]
			advance(idx, outShape)
		}
	case tensor.Int32:
		in, out := t.AsInt32(), result.AsInt32()
		for i := 0; i < n; i++ {
			srcOff := 0
			for d := range idx {
				srcOff += idx[d] * srcStrides[axes[d]]
			}
			out[i] = in[srcOff]
			advance(idx, outShape)
		}
	}
	return result
}

// Expand broadcasts the tensor to a larger shape. Dimensions of size
// 1 may grow; all others must match.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	src := x.Shape()
	if len(shape) < len(src) {
		panic(fmt.Sprintf("expand: target %v has fewer dimensions than %v", shape, src))
	}
	offset := len(shape) - len(src)
	for d := range shape {
		s := d - offset
		if s >= 0 && src[s] != 1 && src[s] != shape[d] {
			panic(fmt.Sprintf("expand: cannot expand %v to %v", src, shape))
		}
	}

	result := tensor.MustNewRaw(shape, x.DType())
	strides := broadcastStrides(src, shape)
	idx := make([]int, len(shape))
	n := shape.NumElements()
	switch x.DType() {
	case tensor.Float32:
		in, out := x.AsFloat32(), result.AsFloat32()
		for i := 0; i < n; i++ {
			srcOff := 0
			for d := range idx {
				srcOff += idx[d] * strides[d]
			}
			out[i] = in[srcOff]
			advance(idx, shape)
		}
	case tensor.Int32:
		in, out := x.AsInt32(), result.AsInt32()
		for i := 0; i < n; i++ {
			srcOff := 0
			for d := range idx {
				srcOff += idx[d] * strides[d]
			}
			out[i] = in[srcOff]
			advance(idx, shape)
		}
	}
	return result
}

// Cat concatenates tensors along dim. Negative dims index from the
// end.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	first := tensors[0].Shape()
	ndim := len(first)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension out of range for shape %v", first))
	}

	catSize := 0
	for _, t := range tensors {
		s := t.Shape()
		if len(s) != ndim {
			panic(fmt.Sprintf("cat: rank mismatch: %v vs %v", first, s))
		}
		for d := range s {
			if d != dim && s[d] != first[d] {
				panic(fmt.Sprintf("cat: shape mismatch along dimension %d: %v vs %v", d, first, s))
			}
		}
		if t.DType() != tensors[0].DType() {
			panic("cat: dtype mismatch")
		}
		catSize += s[dim]
	}

	outShape := first.Clone()
	outShape[dim] = catSize
	result := tensor.MustNewRaw(outShape, tensors[0].DType())

	// Copy blocks: for each "outer" slice, append each input's
	// contiguous (dimSize * inner) chunk in turn.
	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= first[d]
	}
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= first[d]
	}

	switch tensors[0].DType() {
	case tensor.Float32:
		out := result.AsFloat32()
		pos := 0
		for o := 0; o < outer; o++ {
			for _, t := range tensors {
				block := t.Shape()[dim] * inner
				copy(out[pos:pos+block], t.AsFloat32()[o*block:(o+1)*block])
				pos += block
			}
		}
	case tensor.Int32:
		out := result.AsInt32()
		pos := 0
		for o := 0; o < outer; o++ {
			for _, t := range tensors {
				block := t.Shape()[dim] * inner
				copy(out[pos:pos+block], t.AsInt32()[o*block:(o+1)*block])
				pos += block
			}
		}
	}
	return result
}

// Chunk splits the tensor into n equal parts along dim.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("chunk: dimension out of range for shape %v", shape))
	}
	if shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d of size %d not divisible by %d", dim, shape[dim], n))
	}

	partShape := shape.Clone()
	partShape[dim] = shape[dim] / n
	parts := make([]*tensor.RawTensor, n)
	for i := range parts {
		parts[i] = tensor.MustNewRaw(partShape, x.DType())
	}

	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	block := partShape[dim] * inner

	switch x.DType() {
	case tensor.Float32:
		in := x.AsFloat32()
		for o := 0; o < outer; o++ {
			for i, p := range parts {
				src := o*n*block + i*block
				copy(p.AsFloat32()[o*block:(o+1)*block], in[src:src+block])
			}
		}
	case tensor.Int32:
		in := x.AsInt32()
		for o := 0; o < outer; o++ {
			for i, p := range parts {
				src := o*n*block + i*block
				copy(p.AsInt32()[o*block:(o+1)*block], in[src:src+block])
			}
		}
	}
	return parts
}

// Unsqueeze adds a dimension of size 1 at dim.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("unsqueeze: dimension out of range for shape %v", shape))
	}
	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return x.WithShape(newShape)
}

// Squeeze removes a dimension of size 1 at dim.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("squeeze: dimension out of range for shape %v", shape))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d of shape %v is not 1", dim, shape))
	}
	newShape := make(tensor.Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	return x.WithShape(newShape)
}

// Select reduces x along dim to the slice at index, dropping that
// dimension.
func (cpu *CPUBackend) Select(x *tensor.RawTensor, dim, index int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("select: dimension out of range for shape %v", shape))
	}
	if index < 0 || index >= shape[dim] {
		panic(fmt.Sprintf("select: index %d out of range for dimension %d of %v", index, dim, shape))
	}

	outShape := make(tensor.Shape, 0, len(shape)-1)
	outShape = append(outShape, shape[:dim]...)
	outShape = append(outShape, shape[dim+1:]...)
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}
	result := tensor.MustNewRaw(outShape, x.DType())

	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}

	switch x.DType() {
	case tensor.Float32:
		in, out := x.AsFloat32(), result.AsFloat32()
		for o := 0; o < outer; o++ {
			src := o*shape[dim]*inner + index*inner
			copy(out[o*inner:(o+1)*inner], in[src:src+inner])
		}
	case tensor.Int32:
		in, out := x.AsInt32(), result.AsInt32()
		for o := 0; o < outer; o++ {
			src := o*shape[dim]*inner + index*inner
			copy(out[o*inner:(o+1)*inner], in[src:src+inner])
		}
	}
	return result
}

// Embedding looks up rows of weight [V, D] by int32 indices of any
// shape, producing [..., D]. Panics on out-of-range ids: vocabulary
// membership is the caller's contract.
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D [vocab, dim], got %v", wShape))
	}
	if weight.DType() != tensor.Float32 || indices.DType() != tensor.Int32 {
		panic("embedding: weight must be float32 and indices int32")
	}

	vocab, dim := wShape[0], wShape[1]
	outShape := append(indices.Shape().Clone(), dim)
	result := tensor.MustNewRaw(outShape, tensor.Float32)

	w, idx, out := weight.AsFloat32(), indices.AsInt32(), result.AsFloat32()
	for i, id := range idx {
		if id < 0 || int(id) >= vocab {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", id, vocab))
		}
		copy(out[i*dim:(i+1)*dim], w[int(id)*dim:(int(id)+1)*dim])
	}
	return result
}
