package decode

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextquery/nextquery/internal/backend/cpu"
	"github.com/nextquery/nextquery/internal/decoder"
	"github.com/nextquery/nextquery/internal/tensor"
)

func testConfig() decoder.Config {
	return decoder.Config{Model: "GRU", EmbedSize: 4, HiddenSize: 6, Layers: 1, Dropout: 0}
}

func TestSamplerGreedyPicksArgmax(t *testing.T) {
	s := NewSampler(DefaultSamplingConfig())
	logProbs := []float32{-3, -0.1, -5, -2}
	assert.Equal(t, int32(1), s.Sample(logProbs))
}

func TestSamplerSeededIsDeterministic(t *testing.T) {
	cfg := SamplingConfig{Temperature: 1, TopP: 1, Seed: 42}
	a := NewSampler(cfg)
	b := NewSampler(cfg)

	logProbs := []float32{-1.2, -0.8, -2.5, -1.9}
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Sample(logProbs), b.Sample(logProbs))
	}
}

func TestSamplerTopKMasksTail(t *testing.T) {
	s := NewSampler(SamplingConfig{Temperature: 1, TopK: 1, TopP: 1, Seed: 7})
	logProbs := []float32{-3, -0.1, -5, -2}
	for i := 0; i < 20; i++ {
		assert.Equal(t, int32(1), s.Sample(logProbs))
	}
}

func TestSamplerTopPKeepsHead(t *testing.T) {
	// one dominant token: nucleus with small p reduces to greedy
	s := NewSampler(SamplingConfig{Temperature: 1, TopP: 0.5, Seed: 7})
	logProbs := []float32{float32(math.Log(0.9)), float32(math.Log(0.05)), float32(math.Log(0.05))}
	for i := 0; i < 20; i++ {
		assert.Equal(t, int32(0), s.Sample(logProbs))
	}
}

func TestNoAttentionSessionRuns(t *testing.T) {
	backend := cpu.New()
	d, err := decoder.NewNoAttention(5, testConfig(), backend)
	require.NoError(t, err)

	const eosID = 1
	session := NewNoAttentionSession(d, backend, eosID, WithMaxLength(8))
	result, err := session.Run(0)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.Tokens), 8)
	for _, tok := range result.Tokens {
		assert.NotEqual(t, int32(eosID), tok)
		assert.GreaterOrEqual(t, tok, int32(0))
		assert.Less(t, tok, int32(5))
	}
	assert.Empty(t, result.Attention)
}

func TestGlobalSessionCollectsAttention(t *testing.T) {
	backend := cpu.New()
	d, err := decoder.NewGlobalAttention(5, testConfig(), backend)
	require.NoError(t, err)

	encOut := tensor.Randn(tensor.Shape{1, 3, 6}, nil, backend)
	session := NewGlobalSession(d, encOut, backend, -1, WithMaxLength(4))
	result, err := session.Run(0)
	require.NoError(t, err)

	// eos id -1 never fires, so the session runs to the cap
	require.Len(t, result.Tokens, 4)
	require.Len(t, result.Attention, 4)
	for _, row := range result.Attention {
		require.Len(t, row, 3)
		var sum float64
		for _, v := range row {
			sum += float64(v)
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}
}

func TestLocalSessionCollectsAttention(t *testing.T) {
	backend := cpu.New()
	d, err := decoder.NewLocalAttention(5, testConfig(), backend)
	require.NoError(t, err)

	encOut := tensor.Randn(tensor.Shape{1, 3, 6}, nil, backend)
	session := NewLocalSession(d, encOut, backend, -1, WithMaxLength(3))
	result, err := session.Run(0)
	require.NoError(t, err)
	require.Len(t, result.Attention, 3)
}

func TestNaiveSessionRejectsWrongSourceLength(t *testing.T) {
	backend := cpu.New()
	d, err := decoder.NewNaiveAttention(5, 3, testConfig(), backend)
	require.NoError(t, err)

	encOut := tensor.Randn(tensor.Shape{1, 4, 6}, nil, backend)
	session := NewNaiveSession(d, encOut, backend, -1)
	_, err = session.Run(0)
	assert.Error(t, err)
}

func TestWriteAttentionTSV(t *testing.T) {
	var buf bytes.Buffer
	attn := [][]float32{{0.5, 0.25, 0.25}, {0.1, 0.2, 0.7}}
	require.NoError(t, WriteAttentionTSV(&buf, attn))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0.500000\t0.250000\t0.250000", lines[0])
}

func TestWriteHeatmapPNG(t *testing.T) {
	var buf bytes.Buffer
	attn := [][]float32{{1, 0}, {0, 1}}
	require.NoError(t, WriteHeatmapPNG(&buf, attn, 10))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 20, bounds.Dx())
	assert.Equal(t, 20, bounds.Dy())

	assert.Error(t, WriteHeatmapPNG(&buf, attn, 0))
}
