package tensor

import "fmt"

// RawTensor is the untyped tensor representation shared between the
// typed Tensor front end and backend implementations. It owns a
// contiguous row-major buffer of either float32 or int32 elements.
type RawTensor struct {
	shape   Shape
	strides []int
	dtype   DataType
	f32     []float32
	i32     []int32
}

// NewRaw allocates a zero-filled raw tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor: %w", err)
	}

	r := &RawTensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		dtype:   dtype,
	}
	switch dtype {
	case Float32:
		r.f32 = make([]float32, shape.NumElements())
	case Int32:
		r.i32 = make([]int32, shape.NumElements())
	default:
		return nil, fmt.Errorf("tensor: unsupported dtype %v", dtype)
	}
	return r, nil
}

// MustNewRaw is NewRaw for shapes known valid at the call site.
func MustNewRaw(shape Shape, dtype DataType) *RawTensor {
	r, err := NewRaw(shape, dtype)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape { return r.shape }

// Strides returns the row-major strides.
func (r *RawTensor) Strides() []int { return r.strides }

// DType returns the element type.
func (r *RawTensor) DType() DataType { return r.dtype }

// NumElements returns the total element count.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// AsFloat32 returns the float32 buffer. Panics on dtype mismatch.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor: AsFloat32 on %v tensor", r.dtype))
	}
	return r.f32
}

// AsInt32 returns the int32 buffer. Panics on dtype mismatch.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor: AsInt32 on %v tensor", r.dtype))
	}
	return r.i32
}

// Clone returns a deep copy.
func (r *RawTensor) Clone() *RawTensor {
	c := MustNewRaw(r.shape, r.dtype)
	switch r.dtype {
	case Float32:
		copy(c.f32, r.f32)
	case Int32:
		copy(c.i32, r.i32)
	}
	return c
}

// WithShape returns a view of the same buffer under a new shape.
// The element count must match.
func (r *RawTensor) WithShape(shape Shape) *RawTensor {
	if shape.NumElements() != r.NumElements() {
		panic(fmt.Sprintf("tensor: cannot view %v as %v", r.shape, shape))
	}
	return &RawTensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		dtype:   r.dtype,
		f32:     r.f32,
		i32:     r.i32,
	}
}

// String returns a short description.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v", r.dtype, r.shape)
}
