package vocab

import (
	"regexp"
	"strings"
)

// wordpunct splits on word/non-word boundaries: runs of letters,
// digits and underscores, or runs of other non-space characters.
var wordpunct = regexp.MustCompile(`\w+|[^\w\s]+`)

var punctOnly = regexp.MustCompile(`^\pP+$`)

// Tokenize lowercases a query and splits it wordpunct-style, dropping
// tokens made entirely of punctuation.
func Tokenize(s string) []string {
	raw := wordpunct.FindAllString(strings.ToLower(s), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if punctOnly.MatchString(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
