package vocab

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Subword encodes text with a byte-pair tiktoken encoding instead of
// the word-level Dictionary. Useful when the decoder vocabulary is
// trained over subword units rather than whole query words.
type Subword struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewSubword loads a tiktoken encoding by name, for example
// "cl100k_base" or "r50k_base".
func NewSubword(encodingName string) (*Subword, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding %q: %w", encodingName, err)
	}
	return &Subword{encoding: encoding, name: encodingName}, nil
}

// Name returns the encoding name.
func (s *Subword) Name() string { return s.name }

// Encode converts text to token ids.
func (s *Subword) Encode(text string) []int32 {
	tokens := s.encoding.Encode(text, nil, nil)
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = int32(tok) //nolint:gosec // vocab size < 2^31
	}
	return ids
}

// Decode converts token ids back to text.
func (s *Subword) Decode(ids []int32) string {
	tokens := make([]int, len(ids))
	for i, id := range ids {
		tokens[i] = int(id)
	}
	return s.encoding.Decode(tokens)
}
