// Package index holds the in-memory vector index over document chunks and
// answers top-k similarity queries with a brute-force dot-product scan.
// The corpus is small (document chunks from a handful of PDFs), so a linear
// scan over a dense matrix beats maintaining an approximate structure; this
// stops being true past low tens of thousands of chunks.
package index

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"hrchat/internal/domain"
	"hrchat/internal/embedding"
)

// ErrNoValidChunks is returned by Build when every chunk is empty.
var ErrNoValidChunks = errors.New("no valid chunk text to index")

// Snapshot is an immutable index generation: parallel vectors and chunks
// plus the embedder that defines their vector space. Queries must embed with
// the same embedder the snapshot was built with.
type Snapshot struct {
	vectors  [][]float64
	chunks   []domain.Chunk
	embedder embedding.Embedder
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.chunks)
}

// Chunks returns the indexed chunks in build order. Callers must not mutate
// the returned slice.
func (s *Snapshot) Chunks() []domain.Chunk {
	if s == nil {
		return nil
	}
	return s.chunks
}

// Build embeds every chunk with a non-empty text and returns a new snapshot.
// It is all-or-nothing: any embedding failure discards the whole build, and
// a corpus with no usable text fails with ErrNoValidChunks.
func Build(embedder embedding.Embedder, chunks []domain.Chunk) (*Snapshot, error) {
	valid := make([]domain.Chunk, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for i, ch := range chunks {
		text := strings.TrimSpace(ch.Text)
		if text == "" {
			continue
		}
		if ch.ID == 0 {
			ch.ID = i + 1
		}
		ch.Text = text
		valid = append(valid, ch)
		texts = append(texts, text)
	}
	if len(valid) == 0 {
		return nil, ErrNoValidChunks
	}

	if err := embedder.Prepare(texts); err != nil {
		return nil, fmt.Errorf("preparing embedder: %w", err)
	}
	vectors := make([][]float64, len(valid))
	for i, text := range texts {
		vec, err := embedder.Embed(text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", valid[i].ID, err)
		}
		vectors[i] = embedding.Normalize(vec)
	}
	return &Snapshot{vectors: vectors, chunks: valid, embedder: embedder}, nil
}

// Handle is the live index reference. Queries read the current snapshot;
// a reindex installs a fully built snapshot with one atomic swap, so
// in-flight queries see either the old or the new generation, never a mix.
type Handle struct {
	snap atomic.Pointer[Snapshot]
}

// NewHandle returns an empty handle; Search yields no results until a
// snapshot is installed.
func NewHandle() *Handle { return &Handle{} }

// Swap installs the given snapshot as the live index.
func (h *Handle) Swap(s *Snapshot) { h.snap.Store(s) }

// Snapshot returns the live snapshot, which may be nil before the first
// successful build.
func (h *Handle) Snapshot() *Snapshot { return h.snap.Load() }

// Len returns the number of chunks in the live snapshot.
func (h *Handle) Len() int { return h.snap.Load().Len() }

// Search on the live snapshot. See Snapshot.Search.
func (h *Handle) Search(query string, topK int) ([]domain.RetrievalResult, error) {
	return h.snap.Load().Search(query, topK)
}

// Search embeds the query and returns up to topK chunks ordered by
// descending cosine similarity, ties broken by chunk order. An empty query
// or an empty index yields no results rather than an error.
func (snap *Snapshot) Search(query string, topK int) ([]domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}
	if snap.Len() == 0 {
		return nil, nil
	}

	qvec, err := snap.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	qvec = embedding.Normalize(qvec)

	scores := make([]float64, len(snap.vectors))
	for i, v := range snap.vectors {
		scores[i] = dot(v, qvec)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	// Stable sort keeps original chunk order on score ties, which makes
	// result order deterministic.
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })

	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.RetrievalResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.RetrievalResult{
			ChunkID: snap.chunks[j].ID,
			Text:    snap.chunks[j].Text,
			Score:   scores[j],
		})
	}
	return results, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
