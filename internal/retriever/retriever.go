// Package retriever turns a query into a diverse top-k set of chunks:
// embed the query if needed, over-fetch candidates from the index, then
// re-rank with maximal marginal relevance so the result set is not k
// near-duplicates from one source.
package retriever

import (
	"context"
	"fmt"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

const (
	// DefaultK is the result count when the query does not specify one.
	DefaultK = 5

	// DefaultOverfetchFactor over-fetches candidates before diversity
	// re-ranking.
	DefaultOverfetchFactor = 3

	// DefaultLambda balances query relevance against diversity in the MMR
	// pass. Tunable, not law; 0.7 favors relevance.
	DefaultLambda = 0.7

	// mmrTolerance is the tie window for MMR scores; ties break by
	// ascending chunk ID to keep retrieval reproducible.
	mmrTolerance = 1e-6
)

// Searcher is a published vector index: the in-memory exact index or the
// Qdrant-backed ANN store.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int, topics []string) ([]corpus.ScoredChunk, error)
}

// Embedder produces query vectors. Satisfied by *embedding.Embedder.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Options tunes the retrieval pass. Zero values select the defaults.
type Options struct {
	OverfetchFactor int
	Lambda          float64
}

// Retriever answers queries against a searcher.
type Retriever struct {
	searcher Searcher
	embedder Embedder
	opts     Options
}

// New creates a retriever over the given searcher and embedder.
func New(searcher Searcher, embedder Embedder, opts Options) *Retriever {
	if opts.OverfetchFactor <= 0 {
		opts.OverfetchFactor = DefaultOverfetchFactor
	}
	if opts.Lambda <= 0 || opts.Lambda > 1 {
		opts.Lambda = DefaultLambda
	}
	return &Retriever{searcher: searcher, embedder: embedder, opts: opts}
}

// Retrieve returns up to q.K chunks ranked for relevance and diversity.
// Scores are query cosine similarity in [0,1]; ordering is the MMR
// selection order. Fewer than k results come back only when the index has
// fewer matching candidates, never padded with low-relevance filler.
// Deterministic for a fixed index build and query.
func (r *Retriever) Retrieve(ctx context.Context, q corpus.Query) ([]corpus.ScoredChunk, error) {
	k := q.K
	if k <= 0 {
		k = DefaultK
	}

	vector := q.Vector
	if len(vector) == 0 {
		if q.Text == "" {
			return nil, fmt.Errorf("query has neither text nor vector")
		}
		vectors, err := r.embedder.Embed(ctx, []string{q.Text})
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		vector = vectors[0]
	}

	candidates, err := r.searcher.Search(ctx, vector, k*r.opts.OverfetchFactor, q.TopicFilter)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return rerankMMR(candidates, k, r.opts.Lambda), nil
}

// rerankMMR iteratively picks the candidate maximizing
// lambda*sim_to_query - (1-lambda)*max_sim_to_selected.
func rerankMMR(candidates []corpus.ScoredChunk, k int, lambda float64) []corpus.ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]corpus.ScoredChunk, 0, k)
	remaining := make([]corpus.ScoredChunk, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		best := -1
		bestScore := 0.0
		for i, cand := range remaining {
			score := lambda*cand.Score - (1-lambda)*maxSimilarity(cand, selected)
			switch {
			case best < 0, score > bestScore+mmrTolerance:
				best, bestScore = i, score
			case score > bestScore-mmrTolerance && cand.Chunk.ID < remaining[best].Chunk.ID:
				best = i
			}
		}
		selected = append(selected, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return selected
}

// maxSimilarity returns the highest cosine similarity between the
// candidate and any already-selected chunk, 0 when nothing is selected.
func maxSimilarity(cand corpus.ScoredChunk, selected []corpus.ScoredChunk) float64 {
	maxSim := 0.0
	for _, s := range selected {
		if sim := corpus.ClipScore(corpus.Dot(cand.Chunk.Vector, s.Chunk.Vector)); sim > maxSim {
			maxSim = sim
		}
	}
	return maxSim
}
