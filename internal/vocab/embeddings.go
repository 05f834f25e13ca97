package vocab

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// LoadEmbeddings parses a whitespace-separated pretrained embedding
// file (word followed by its vector components, one word per line)
// and returns an L2-normalized word-to-vector table. Malformed lines
// are skipped, not fatal; the reported count includes only parsed
// entries.
func LoadEmbeddings(r io.Reader) (map[string][]float32, error) {
	table := make(map[string][]float32)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		vec := make([]float32, len(fields)-1)
		ok := true
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				ok = false
				break
			}
			vec[i] = float32(v)
		}
		if !ok {
			continue
		}
		table[fields[0]] = normalize(vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}
	return table, nil
}

// SaveEmbeddings writes the table entries for the given words, one
// tab-separated line per word. Words missing from the table are
// silently skipped.
func SaveEmbeddings(w io.Writer, table map[string][]float32, words []string) error {
	bw := bufio.NewWriter(w)
	for _, word := range words {
		vec, ok := table[word]
		if !ok {
			continue
		}
		if _, err := bw.WriteString(word); err != nil {
			return fmt.Errorf("writing embeddings: %w", err)
		}
		for _, v := range vec {
			if _, err := fmt.Fprintf(bw, "\t%g", v); err != nil {
				return fmt.Errorf("writing embeddings: %w", err)
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing embeddings: %w", err)
		}
	}
	return bw.Flush()
}

// normalize scales a vector to unit L2 norm. The zero vector comes
// back unchanged.
func normalize(vec []float32) []float32 {
	var sq float64
	for _, v := range vec {
		sq += float64(v) * float64(v)
	}
	if sq == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sq))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
