package decoder

import (
	"fmt"
	"math/rand"

	"github.com/nextquery/nextquery/internal/nn"
	"github.com/nextquery/nextquery/internal/rnn"
	"github.com/nextquery/nextquery/internal/tensor"
)

// Hidden is the recurrent state every variant threads between steps.
type Hidden[B tensor.Backend] = rnn.State[B]

// base carries the scaffolding shared by all four variants: the
// embedding table, the recurrent stack, the dropout layer and the
// vocabulary projection.
type base[B tensor.Backend] struct {
	cfg       Config
	vocabSize int
	embedding *nn.Embedding[B]
	drop      *nn.Dropout[B]
	core      *rnn.Stack[B]
	out       *nn.Linear[B]
	backend   B
}

// rnnInputSize is the width of the vector entering the recurrent
// stack, which differs per variant.
func newBase[B tensor.Backend](vocabSize int, cfg Config, rnnInputSize int, backend B, stackOpts ...rnn.StackOption) (base[B], error) {
	if err := cfg.Validate(); err != nil {
		return base[B]{}, err
	}
	if vocabSize < 1 {
		return base[B]{}, configErrorf("vocabulary size must be positive, got %d", vocabSize)
	}

	core, err := rnn.NewStack(cfg.kind(), rnnInputSize, cfg.HiddenSize, cfg.Layers, backend, stackOpts...)
	if err != nil {
		return base[B]{}, configErrorf("%v", err)
	}

	return base[B]{
		cfg:       cfg,
		vocabSize: vocabSize,
		embedding: nn.NewEmbedding(vocabSize, cfg.EmbedSize, backend),
		drop:      nn.NewDropout[B](cfg.Dropout),
		core:      core,
		out:       nn.NewLinear(cfg.HiddenSize, vocabSize, backend),
		backend:   backend,
	}, nil
}

// Config returns the construction-time configuration.
func (d *base[B]) Config() Config { return d.cfg }

// VocabSize returns the output vocabulary size.
func (d *base[B]) VocabSize() int { return d.vocabSize }

// InitHidden returns the zero hidden state for a batch, shaped
// [layers, batch, hidden] (paired with a cell state for LSTM).
func (d *base[B]) InitHidden(batch int) Hidden[B] {
	return d.core.InitState(batch)
}

// InitEmbeddings overwrites the embedding table from a pretrained
// token-to-vector lookup, drawing unseen tokens from N(0, 1).
func (d *base[B]) InitEmbeddings(vocabulary nn.Vocabulary, table map[string][]float32, rng *rand.Rand) error {
	return d.embedding.InitPretrained(vocabulary, table, rng)
}

// Train toggles dropout between training and inference behavior.
func (d *base[B]) Train(on bool) { d.drop.Train(on) }

// embed looks up and regularizes the embeddings for a token batch.
// input is [batch] int32; the result is [batch, embed].
func (d *base[B]) embed(input *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	shape := input.Shape()
	if len(shape) != 1 {
		return nil, shapeError("token batch", tensor.Shape{-1}, shape)
	}
	return d.drop.Forward(d.embedding.Forward(input)), nil
}

// project maps the combined representation [batch, hidden] to
// log-probabilities over the vocabulary [batch, vocab].
func (d *base[B]) project(combined *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return d.out.Forward(combined).LogSoftmax(1)
}

// checkEncoderOutputs validates the [batch, srcLen, hidden] contract
// and returns srcLen.
func (d *base[B]) checkEncoderOutputs(encoderOutputs *tensor.Tensor[float32, B], batch int) (int, error) {
	shape := encoderOutputs.Shape()
	if len(shape) != 3 || shape[0] != batch || shape[2] != d.cfg.HiddenSize {
		return 0, shapeError("encoder outputs", tensor.Shape{batch, -1, d.cfg.HiddenSize}, shape)
	}
	return shape[1], nil
}

// baseStateDict collects the shared parameters under their canonical
// prefixes.
func (d *base[B]) baseStateDict() map[string]*tensor.RawTensor {
	dict := map[string]*tensor.RawTensor{
		"embedding.weight": d.embedding.Weight.Tensor().Raw(),
	}
	mergeStateDict(dict, "rnn", d.core.StateDict())
	mergeStateDict(dict, "out", d.out.StateDict())
	return dict
}

// baseLoadStateDict restores the shared parameters.
func (d *base[B]) baseLoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadRaw(stateDict, "embedding.weight", d.embedding.Weight.Tensor().Raw()); err != nil {
		return err
	}
	if err := d.core.LoadStateDict(subStateDict(stateDict, "rnn")); err != nil {
		return err
	}
	return d.out.LoadStateDict(subStateDict(stateDict, "out"))
}

func mergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, raw := range src {
		dst[prefix+"."+name] = raw
	}
}

func subStateDict(dict map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	for name, raw := range dict {
		if len(name) > len(prefix)+1 && name[:len(prefix)+1] == prefix+"." {
			sub[name[len(prefix)+1:]] = raw
		}
	}
	return sub
}

// loadRaw copies one named tensor after shape and dtype validation.
func loadRaw(dict map[string]*tensor.RawTensor, name string, dst *tensor.RawTensor) error {
	src, ok := dict[name]
	if !ok {
		return fmt.Errorf("missing %s in state dict", name)
	}
	if !src.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, dst.Shape(), src.Shape())
	}
	if src.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, src.DType())
	}
	copy(dst.AsFloat32(), src.AsFloat32())
	return nil
}
