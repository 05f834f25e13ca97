package checkpoint

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nextquery/nextquery/internal/tensor"
)

func sampleTensors(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()

	weight, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(weight.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	ids, err := tensor.NewRaw(tensor.Shape{4}, tensor.Int32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(ids.AsInt32(), []int32{7, -8, 9, 10})

	return map[string]*tensor.RawTensor{
		"out.weight": weight,
		"token_ids":  ids,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	meta := map[string]string{"vocab_size": "5"}
	if err := Save(&buf, "GlobalAttention", meta, sampleTensors(t)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ckpt, err := Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ckpt.Header.Model != "GlobalAttention" {
		t.Errorf("Expected model GlobalAttention, got %q", ckpt.Header.Model)
	}
	if ckpt.Header.Metadata["vocab_size"] != "5" {
		t.Errorf("Metadata not preserved: %v", ckpt.Header.Metadata)
	}
	if len(ckpt.Tensors) != 2 {
		t.Fatalf("Expected 2 tensors, got %d", len(ckpt.Tensors))
	}

	weight := ckpt.Tensors["out.weight"]
	if !weight.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Wrong shape: %v", weight.Shape())
	}
	for i, want := range []float32{1, 2, 3, 4, 5, 6} {
		if weight.AsFloat32()[i] != want {
			t.Errorf("Element %d: expected %v, got %v", i, want, weight.AsFloat32()[i])
		}
	}

	ids := ckpt.Tensors["token_ids"]
	if ids.AsInt32()[1] != -8 {
		t.Errorf("Int32 payload corrupted: %v", ids.AsInt32())
	}
}

func TestSaveIsDeterministic(t *testing.T) {
	tensors := sampleTensors(t)

	var a, b bytes.Buffer
	if err := Save(&a, "NoAttention", nil, tensors); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := Save(&b, "NoAttention", nil, tensors); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// only the created_at timestamp may differ, so compare payload
	// layout via a reload
	ca, err := Load(bytes.NewReader(a.Bytes()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cb, err := Load(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for i := range ca.Header.Tensors {
		if ca.Header.Tensors[i].Offset != cb.Header.Tensors[i].Offset {
			t.Errorf("Tensor %q placed at different offsets", ca.Header.Tensors[i].Name)
		}
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, "NoAttention", nil, sampleTensors(t)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data := buf.Bytes()
	data[0] = 'X'
	if _, err := Load(bytes.NewReader(data)); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("Expected ErrInvalidMagic, got %v", err)
	}
}

func TestLoadRejectsCorruptedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, "NoAttention", nil, sampleTensors(t)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data := buf.Bytes()
	data[len(data)-ChecksumSize-1] ^= 0xFF
	if _, err := Load(bytes.NewReader(data)); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("NXQ1"))); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("Expected ErrInvalidMagic for truncated file, got %v", err)
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.nxq")
	if err := SaveFile(path, "LocalAttention", nil, sampleTensors(t)); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	ckpt, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if ckpt.Header.Model != "LocalAttention" {
		t.Errorf("Expected model LocalAttention, got %q", ckpt.Header.Model)
	}
}
