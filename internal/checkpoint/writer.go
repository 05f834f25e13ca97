package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/nextquery/nextquery/internal/tensor"
)

// Save writes a checkpoint: the given tensors (a decoder StateDict),
// the variant name and optional metadata. Tensor payloads are laid
// out in name order so identical inputs always produce identical
// bytes.
func Save(w io.Writer, model string, metadata map[string]string, tensors map[string]*tensor.RawTensor) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	var payload bytes.Buffer
	metas := make([]TensorMeta, 0, len(names))
	for _, name := range names {
		raw := tensors[name]
		offset := int64(payload.Len())
		if err := writeTensorData(&payload, raw); err != nil {
			return fmt.Errorf("encoding tensor %q: %w", name, err)
		}
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  raw.Shape().Clone(),
			Offset: offset,
			Size:   int64(payload.Len()) - offset,
		})
	}

	header := Header{
		FormatVersion: FormatVersion,
		Model:         model,
		CreatedAt:     time.Now().UTC(),
		Tensors:       metas,
		Metadata:      metadata,
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	var file bytes.Buffer
	file.WriteString(MagicBytes)
	var fixed [8]byte
	binary.LittleEndian.PutUint32(fixed[0:4], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(len(headerJSON)))
	file.Write(fixed[:])
	file.Write(headerJSON)
	file.Write(payload.Bytes())

	checksum := sha256.Sum256(file.Bytes())
	file.Write(checksum[:])

	_, err = w.Write(file.Bytes())
	return err
}

// SaveFile writes a checkpoint to path, replacing any existing file.
func SaveFile(path, model string, metadata map[string]string, tensors map[string]*tensor.RawTensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(f, model, metadata, tensors); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeTensorData(w io.Writer, raw *tensor.RawTensor) error {
	switch raw.DType() {
	case tensor.Float32:
		buf := make([]byte, 4*len(raw.AsFloat32()))
		for i, v := range raw.AsFloat32() {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		_, err := w.Write(buf)
		return err
	case tensor.Int32:
		buf := make([]byte, 4*len(raw.AsInt32()))
		for i, v := range raw.AsInt32() {
			binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
		}
		_, err := w.Write(buf)
		return err
	default:
		return ErrUnknownDType
	}
}
