// Package checkpoint persists decoder parameters in a small binary
// container: fixed magic, a JSON header describing every tensor, the
// raw little-endian payload and a trailing SHA-256 checksum.
package checkpoint

import (
	"time"

	"github.com/nextquery/nextquery/internal/tensor"
)

const (
	// MagicBytes opens every checkpoint file.
	MagicBytes = "NXQ1"
	// FormatVersion is the current container version.
	FormatVersion = 1
	// ChecksumSize is the trailing SHA-256 length in bytes.
	ChecksumSize = 32
	// MaxHeaderSize bounds the JSON header to keep a corrupted length
	// field from driving a huge allocation.
	MaxHeaderSize = 16 << 20
)

// Data type names used in the JSON header.
const (
	DTypeFloat32 = "float32"
	DTypeInt32   = "int32"
)

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Model         string            `json:"model"`      // decoder variant name
	CreatedAt     time.Time         `json:"created_at"` // UTC
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the payload section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the payload
	Size   int64  `json:"size"`   // bytes
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Int32:
		return DTypeInt32
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeInt32:
		return tensor.Int32, true
	default:
		return 0, false
	}
}
