package nn

import (
	"fmt"
	"math/rand"

	"github.com/nextquery/nextquery/internal/tensor"
)

// Embedding maps discrete token ids to dense vectors.
//
// Weight is [NumEmbed, EmbedDim]; Forward maps indices of any shape
// [...] to embeddings [..., EmbedDim].
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B]
	NumEmbed int
	EmbedDim int
}

// NewEmbedding creates an Embedding with weights drawn from N(0, 1).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	weight := tensor.Randn(tensor.Shape{numEmbeddings, embeddingDim}, nil, backend)
	return &Embedding[B]{
		Weight:   NewParameter[B]("embedding.weight", weight),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// Forward performs the lookup. Indices must lie in [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	w := e.Weight.Tensor()
	return tensor.New[float32, B](w.Backend().Embedding(w.Raw(), indices.Raw()), w.Backend())
}

// Parameters returns the embedding weight.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}

// Vocabulary is the ordered id-to-token mapping the pretrained
// initializer consumes. vocab.Dictionary satisfies it.
type Vocabulary interface {
	Len() int
	Word(id int) string
}

// InitPretrained overwrites the embedding matrix from a pretrained
// token-to-vector table: rows for in-vocabulary tokens are copied
// verbatim, rows for unseen tokens are drawn from N(0, 1) using rng
// (the global source when rng is nil). Re-running with the same table
// always reproduces the in-vocabulary rows; an out-of-vocabulary
// token is a policy case, never an error.
func (e *Embedding[B]) InitPretrained(vocabulary Vocabulary, table map[string][]float32, rng *rand.Rand) error {
	if vocabulary.Len() != e.NumEmbed {
		return fmt.Errorf("vocabulary size %d does not match embedding rows %d", vocabulary.Len(), e.NumEmbed)
	}

	normFloat64 := rand.NormFloat64
	if rng != nil {
		normFloat64 = rng.NormFloat64
	}

	data := e.Weight.Tensor().Data()
	for i := 0; i < vocabulary.Len(); i++ {
		row := data[i*e.EmbedDim : (i+1)*e.EmbedDim]
		if vec, ok := table[vocabulary.Word(i)]; ok {
			if len(vec) != e.EmbedDim {
				return fmt.Errorf("pretrained vector for %q has dimension %d, want %d", vocabulary.Word(i), len(vec), e.EmbedDim)
			}
			copy(row, vec)
			continue
		}
		for j := range row {
			row[j] = float32(normFloat64())
		}
	}
	return nil
}
