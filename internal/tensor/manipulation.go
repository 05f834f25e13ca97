package tensor

// Cat concatenates tensors along the specified dimension. All inputs
// must agree on every other dimension. Negative dims index from the
// end.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	if len(tensors) == 1 {
		return tensors[0].Clone()
	}

	raws := make([]*RawTensor, len(tensors))
	backend := tensors[0].backend
	for i, t := range tensors {
		raws[i] = t.raw
	}
	return New[T, B](backend.Cat(raws, dim), backend)
}

// Stack concatenates tensors along a new leading dimension at dim.
func Stack[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	unsqueezed := make([]*Tensor[T, B], len(tensors))
	for i, t := range tensors {
		unsqueezed[i] = t.Unsqueeze(dim)
	}
	return Cat(unsqueezed, dim)
}

// Chunk splits the tensor into n equal parts along dim. The
// dimension size must be divisible by n.
func (t *Tensor[T, B]) Chunk(n, dim int) []*Tensor[T, B] {
	rawParts := t.backend.Chunk(t.raw, n, dim)
	parts := make([]*Tensor[T, B], len(rawParts))
	for i, raw := range rawParts {
		parts[i] = New[T, B](raw, t.backend)
	}
	return parts
}

// Unsqueeze adds a dimension of size 1 at the given position.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Squeeze removes a dimension of size 1 at the given position.
// Panics if that dimension is not 1.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Squeeze(t.raw, dim), t.backend)
}

// Select reduces the tensor along dim to the slice at index,
// dropping that dimension. Select(1, i) on [L, B, H] yields [L, H]
// only when dim=1; on dim=0 it yields [B, H].
func (t *Tensor[T, B]) Select(dim, index int) *Tensor[T, B] {
	return New[T, B](t.backend.Select(t.raw, dim, index), t.backend)
}
