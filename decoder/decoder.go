// Copyright 2026 The NextQuery Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package decoder provides the public API for the query-suggestion
// decoders: four attention variants over a shared recurrent core.
//
// Example:
//
//	backend := cpu.New()
//	cfg := decoder.Config{Model: "LSTM", EmbedSize: 128, HiddenSize: 256, Layers: 2, Dropout: 0.2}
//	d, err := decoder.NewGlobalAttention(vocabSize, cfg, backend)
package decoder

import (
	"github.com/nextquery/nextquery/internal/decoder"
	"github.com/nextquery/nextquery/internal/tensor"
)

// Config is the immutable decoder configuration.
type Config = decoder.Config

// ErrConfig marks construction-time configuration failures.
var ErrConfig = decoder.ErrConfig

// ShapeError reports a per-call tensor shape inconsistency.
type ShapeError = decoder.ShapeError

// Hidden is the recurrent state threaded between decoding steps.
type Hidden[B tensor.Backend] = decoder.Hidden[B]

// NoAttention is the baseline decoder without encoder access.
type NoAttention[B tensor.Backend] = decoder.NoAttention[B]

// NewNoAttention builds the baseline decoder.
func NewNoAttention[B tensor.Backend](vocabSize int, cfg Config, backend B) (*NoAttention[B], error) {
	return decoder.NewNoAttention(vocabSize, cfg, backend)
}

// NaiveAttention scores encoder positions with a fixed-width linear
// head over the embedded input and last hidden layer.
type NaiveAttention[B tensor.Backend] = decoder.NaiveAttention[B]

// NewNaiveAttention builds the concat-scoring decoder sized for
// maxSentLength source positions.
func NewNaiveAttention[B tensor.Backend](vocabSize, maxSentLength int, cfg Config, backend B) (*NaiveAttention[B], error) {
	return decoder.NewNaiveAttention(vocabSize, maxSentLength, cfg, backend)
}

// GlobalAttention implements Luong-style global bilinear attention
// with a cross-step context vector.
type GlobalAttention[B tensor.Backend] = decoder.GlobalAttention[B]

// NewGlobalAttention builds the global-attention decoder.
func NewGlobalAttention[B tensor.Backend](vocabSize int, cfg Config, backend B) (*GlobalAttention[B], error) {
	return decoder.NewGlobalAttention(vocabSize, cfg, backend)
}

// LocalAttention implements Luong local-p attention with a Gaussian
// emphasis window around a predicted source position.
type LocalAttention[B tensor.Backend] = decoder.LocalAttention[B]

// LocalOption customizes LocalAttention construction.
type LocalOption = decoder.LocalOption

// WithWindowSize overrides the default emphasis window width of 3.
func WithWindowSize(size int) LocalOption {
	return decoder.WithWindowSize(size)
}

// NewLocalAttention builds the windowed-attention decoder.
func NewLocalAttention[B tensor.Backend](vocabSize int, cfg Config, backend B, opts ...LocalOption) (*LocalAttention[B], error) {
	return decoder.NewLocalAttention(vocabSize, cfg, backend, opts...)
}
