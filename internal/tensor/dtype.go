package tensor

// DataType identifies the element type of a RawTensor.
type DataType int

// Supported data types. The decoder stack is float32 throughout;
// int32 is used for token indices.
const (
	Float32 DataType = iota
	Int32
)

// String returns the dtype name.
func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// Size returns the element size in bytes.
func (d DataType) Size() int {
	return 4
}

// DType is the constraint for tensor element types.
type DType interface {
	float32 | int32
}

// inferDataType maps a Go value to its DataType tag.
func inferDataType(v any) DataType {
	switch v.(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	default:
		panic("tensor: unsupported element type")
	}
}
