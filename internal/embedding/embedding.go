// Package embedding provides the embedder implementations used to build and
// query the vector index.
package embedding

import "math"

// Factory creates a fresh embedder bound to one index build. Corpus-trained
// embedders (TF-IDF) must not be shared across builds; remote embedders may
// return the same client every time.
type Factory func() (Embedder, error)

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// Normalize scales v to unit length in place and returns it. Zero vectors
// are returned unchanged so callers can detect them.
func Normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}

// IsZero reports whether every component of v is exactly zero.
func IsZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
