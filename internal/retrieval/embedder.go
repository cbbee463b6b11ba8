package retrieval

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic bag-of-words embedder: each token is
// hashed into a fixed number of buckets and the resulting counts are
// L2-normalized. It has no semantic understanding, but it is stable,
// dependency-free and good enough for keyword-heavy corpora like
// financial reports, and it keeps tests hermetic.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates an embedder with the given dimensionality.
// Values below 16 are raised to a workable default.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims < 16 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

// Embed hashes the text's tokens into a normalized vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dims)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%e.dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
