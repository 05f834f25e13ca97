package checkpoint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/nextquery/nextquery/internal/tensor"
)

// Checkpoint is a parsed checkpoint file.
type Checkpoint struct {
	Header  Header
	Tensors map[string]*tensor.RawTensor
}

// Load parses and validates a checkpoint: magic, version, checksum
// and per-tensor bounds are all checked before any tensor is
// materialized.
func Load(r io.Reader) (*Checkpoint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	const fixedSize = len(MagicBytes) + 8
	if len(data) < fixedSize+ChecksumSize {
		return nil, ErrInvalidMagic
	}
	if string(data[:len(MagicBytes)]) != MagicBytes {
		return nil, ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	body := data[:len(data)-ChecksumSize]
	var stored [ChecksumSize]byte
	copy(stored[:], data[len(data)-ChecksumSize:])
	if sha256.Sum256(body) != stored {
		return nil, ErrChecksumMismatch
	}

	headerLen := int(binary.LittleEndian.Uint32(data[8:12]))
	if headerLen > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if fixedSize+headerLen > len(body) {
		return nil, fmt.Errorf("%w: header length %d", ErrOutOfBounds, headerLen)
	}

	var header Header
	if err := json.Unmarshal(body[fixedSize:fixedSize+headerLen], &header); err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}

	payload := body[fixedSize+headerLen:]
	tensors := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		raw, err := readTensor(payload, meta)
		if err != nil {
			return nil, err
		}
		tensors[meta.Name] = raw
	}

	return &Checkpoint{Header: header, Tensors: tensors}, nil
}

// LoadFile reads a checkpoint from path.
func LoadFile(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func readTensor(payload []byte, meta TensorMeta) (*tensor.RawTensor, error) {
	dt, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("%w: tensor %q dtype %q", ErrUnknownDType, meta.Name, meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
	}
	wantSize := int64(shape.NumElements()) * int64(dt.Size())
	if meta.Size != wantSize {
		return nil, fmt.Errorf("tensor %q: size %d does not match shape %v", meta.Name, meta.Size, meta.Shape)
	}
	if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(payload)) {
		return nil, fmt.Errorf("%w: tensor %q", ErrOutOfBounds, meta.Name)
	}

	raw, err := tensor.NewRaw(shape, dt)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
	}

	buf := payload[meta.Offset : meta.Offset+meta.Size]
	switch dt {
	case tensor.Float32:
		dst := raw.AsFloat32()
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	case tensor.Int32:
		dst := raw.AsInt32()
		for i := range dst {
			dst[i] = int32(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	}
	return raw, nil
}
