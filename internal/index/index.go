// Package index provides the in-memory vector index: exact cosine search
// over L2-normalized chunk embeddings with deterministic ranking, plus
// versioned persistence and an atomically swappable handle.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// ExactSearchBudget is the corpus size up to which brute-force search is
// the expected regime. Beyond it, callers should build against the ANN
// backend instead.
const ExactSearchBudget = 50_000

// scoreTolerance is the floating-point tolerance within which two scores
// count as tied. Ties break by ascending chunk ID so repeated queries
// against the same build return identical orderings.
const scoreTolerance = 1e-6

// Index is an exact-search vector index. It is append-only during the
// build phase and immutable once published through a Handle; a published
// Index is safe for concurrent readers without locking.
type Index struct {
	dim    int
	chunks []corpus.Chunk
}

// New creates an empty index. Dimensionality locks at the first insert.
func New() *Index {
	return &Index{}
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Dimension returns the locked vector dimensionality, 0 while empty.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Chunks returns the indexed chunks in insertion order. The slice is
// shared; callers must not mutate it.
func (ix *Index) Chunks() []corpus.Chunk {
	return ix.chunks
}

// Insert adds a chunk. The first insert fixes the index dimensionality;
// later inserts with a different vector length fail with
// ErrDimensionMismatch and leave the index contents unchanged. Vectors
// are L2-normalized on the way in.
func (ix *Index) Insert(chunk corpus.Chunk) error {
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("chunk %s has no vector: %w", chunk.ID, corpus.ErrDimensionMismatch)
	}
	if ix.dim == 0 {
		ix.dim = len(chunk.Vector)
	} else if len(chunk.Vector) != ix.dim {
		return fmt.Errorf("chunk %s has %d dimensions, index has %d: %w",
			chunk.ID, len(chunk.Vector), ix.dim, corpus.ErrDimensionMismatch)
	}
	chunk.Vector = corpus.Normalize(chunk.Vector)
	ix.chunks = append(ix.chunks, chunk)
	return nil
}

// Search returns the top-k chunks by cosine similarity to the query
// vector, optionally restricted to chunks carrying any of the topic tags.
// Scores are clipped to [0,1]. Ordering is deterministic: score
// descending, ties by ascending chunk ID.
func (ix *Index) Search(ctx context.Context, vector []float32, k int, topics []string) ([]corpus.ScoredChunk, error) {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(vector), ix.dim, corpus.ErrDimensionMismatch)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := corpus.Normalize(vector)

	results := make([]corpus.ScoredChunk, 0, len(ix.chunks))
	for i := range ix.chunks {
		chunk := &ix.chunks[i]
		if !matchesTopics(chunk, topics) {
			continue
		}
		results = append(results, corpus.ScoredChunk{
			Chunk: chunk,
			Score: corpus.ClipScore(corpus.Dot(query, chunk.Vector)),
		})
	}

	SortRanked(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SortRanked orders scored chunks by score descending with ties (within
// scoreTolerance) broken by ascending chunk ID.
func SortRanked(results []corpus.ScoredChunk) {
	sort.Slice(results, func(i, j int) bool {
		a, b := quantize(results[i].Score), quantize(results[j].Score)
		if a != b {
			return a > b
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

func quantize(score float64) int64 {
	return int64(math.Round(score / scoreTolerance))
}

// matchesTopics reports whether the chunk carries any of the wanted tags.
// An empty filter matches everything.
func matchesTopics(chunk *corpus.Chunk, topics []string) bool {
	if len(topics) == 0 {
		return true
	}
	for _, t := range topics {
		if chunk.HasTag(t) {
			return true
		}
	}
	return false
}
