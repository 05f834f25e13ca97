// Package vocab provides the token vocabulary the decoder indexes
// into: an ordered id-to-word dictionary with special tokens, a
// wordpunct tokenizer for queries, pretrained embedding table I/O and
// an optional subword encoder.
package vocab

// Reserved tokens, always present at the front of a Dictionary.
const (
	SOS     = "<s>"
	EOS     = "</s>"
	Unknown = "<unk>"
)

// Dictionary is an ordered, append-only id <-> word mapping. Ids are
// dense and stable: a word keeps the id it was first added under.
type Dictionary struct {
	idx2word []string
	word2idx map[string]int
}

// NewDictionary creates a dictionary seeded with the reserved tokens
// SOS, EOS and Unknown at ids 0, 1 and 2.
func NewDictionary() *Dictionary {
	d := &Dictionary{word2idx: make(map[string]int)}
	for _, w := range []string{SOS, EOS, Unknown} {
		d.Add(w)
	}
	return d
}

// Add inserts a word if absent and returns its id.
func (d *Dictionary) Add(word string) int {
	if id, ok := d.word2idx[word]; ok {
		return id
	}
	id := len(d.idx2word)
	d.idx2word = append(d.idx2word, word)
	d.word2idx[word] = id
	return id
}

// AddSentence tokenizes a sentence and adds every token.
func (d *Dictionary) AddSentence(sentence string) {
	for _, tok := range Tokenize(sentence) {
		d.Add(tok)
	}
}

// Len returns the vocabulary size.
func (d *Dictionary) Len() int { return len(d.idx2word) }

// Word returns the word at an id. Panics on out-of-range ids, which
// indicate a decoder emitting ids beyond its own vocabulary.
func (d *Dictionary) Word(id int) string { return d.idx2word[id] }

// ID resolves a word, falling back to the unknown id. Out-of-vocab is
// policy, never an error.
func (d *Dictionary) ID(word string) int {
	if id, ok := d.word2idx[word]; ok {
		return id
	}
	return d.word2idx[Unknown]
}

// Contains reports whether the word has an id of its own.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.word2idx[word]
	return ok
}

// SOSID returns the start-of-sequence id.
func (d *Dictionary) SOSID() int { return d.word2idx[SOS] }

// EOSID returns the end-of-sequence id.
func (d *Dictionary) EOSID() int { return d.word2idx[EOS] }

// UnknownID returns the unknown-token id.
func (d *Dictionary) UnknownID() int { return d.word2idx[Unknown] }

// Words returns the ordered word list. The slice is shared, callers
// must not mutate it.
func (d *Dictionary) Words() []string { return d.idx2word }

// SentenceToIDs tokenizes a sentence and maps each token to its id,
// appending EOS when asked. Unknown words map to the unknown id.
func (d *Dictionary) SentenceToIDs(sentence string, appendEOS bool) []int32 {
	tokens := Tokenize(sentence)
	ids := make([]int32, 0, len(tokens)+1)
	for _, tok := range tokens {
		ids = append(ids, int32(d.ID(tok)))
	}
	if appendEOS {
		ids = append(ids, int32(d.EOSID()))
	}
	return ids
}
