package index

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// ErrNoIndex is returned when a query arrives before any index has been
// published.
var ErrNoIndex = errors.New("no index published")

// Handle is the explicitly owned, swappable pointer to the current
// published index. A corpus refresh builds a new Index off to the side
// and publishes it here; in-flight queries keep the snapshot they loaded
// and the old index is reclaimed by the garbage collector once no reader
// holds it.
type Handle struct {
	current atomic.Pointer[Index]
}

// NewHandle creates a handle, optionally seeded with an initial index.
func NewHandle(ix *Index) *Handle {
	h := &Handle{}
	if ix != nil {
		h.current.Store(ix)
	}
	return h
}

// Publish atomically swaps in a fully built index. The index must not be
// mutated after this call.
func (h *Handle) Publish(ix *Index) {
	h.current.Store(ix)
}

// Current returns the published index, or nil if none has been published
// yet. Callers should hold the returned pointer for the duration of a
// query burst rather than re-loading between calls.
func (h *Handle) Current() *Index {
	return h.current.Load()
}

// Search queries the currently published index, so a Handle can stand in
// wherever a searcher is needed while refreshes swap indexes underneath.
// Each call runs against a single consistent snapshot.
func (h *Handle) Search(ctx context.Context, vector []float32, k int, topics []string) ([]corpus.ScoredChunk, error) {
	ix := h.current.Load()
	if ix == nil {
		return nil, ErrNoIndex
	}
	return ix.Search(ctx, vector, k, topics)
}
