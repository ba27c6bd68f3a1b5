// Package embedding wraps the external embedding provider behind a
// batching, caching, retrying gateway. The provider is an opaque
// text → vector function; this package never fabricates vectors on
// failure.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

const (
	// Model is the OpenAI model used for generating embeddings.
	Model = "text-embedding-3-small"

	// Dimension is the vector size produced by text-embedding-3-small.
	Dimension = 1536

	// MaxBatchSize caps texts per provider request. The provider accepts
	// more, but 96 keeps each request comfortably under token limits for
	// chunked content.
	MaxBatchSize = 96

	// DefaultTimeout bounds a single provider call. A timeout surfaces as
	// ErrEmbeddingUnavailable, same as an explicit error response.
	DefaultTimeout = 10 * time.Second

	// maxAttempts bounds retries per batch: one initial try plus two
	// retries with exponential backoff and jitter.
	maxAttempts = 3

	// retryBaseInterval is the initial backoff interval.
	retryBaseInterval = 500 * time.Millisecond
)

// Provider is the raw embedding call without retry or caching.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedBatch generates embeddings for a batch of texts via the OpenAI API.
// Vectors come back in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: Model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = toFloat32(data.Embedding)
	}
	return vectors, nil
}

// Embedder is the embedding gateway: it batches requests, retries
// transient failures with bounded backoff, and caches vectors by content
// hash so identical text seen across runs costs one provider call.
// Safe for concurrent use; cache writes are idempotent.
type Embedder struct {
	provider  Provider
	batchSize int
	timeout   time.Duration

	mu    sync.RWMutex
	cache map[string][]float32 // content hash -> normalized vector
}

// NewEmbedder creates an embedding gateway over the given provider.
// batchSize is clamped to MaxBatchSize; 0 selects it.
func NewEmbedder(provider Provider, batchSize int) *Embedder {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &Embedder{
		provider:  provider,
		batchSize: batchSize,
		timeout:   DefaultTimeout,
		cache:     make(map[string][]float32),
	}
}

// Embed returns one L2-normalized vector per input text, in input order.
// Cached texts are served without a provider call. After retries are
// exhausted the whole call fails with ErrEmbeddingUnavailable; no partial
// or zero vectors are returned, since those would silently corrupt
// similarity geometry.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	// Serve cache hits, collect misses.
	var missTexts []string
	var missIdx []int
	e.mu.RLock()
	for i, text := range texts {
		if vec, ok := e.cache[contentHash(text)]; ok {
			results[i] = vec
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
	}
	e.mu.RUnlock()

	for start := 0; start < len(missTexts); start += e.batchSize {
		end := min(start+e.batchSize, len(missTexts))
		batch := missTexts[start:end]

		vectors, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w: %v", start, end, corpus.ErrEmbeddingUnavailable, err)
		}

		e.mu.Lock()
		for j, vec := range vectors {
			normalized := corpus.Normalize(vec)
			e.cache[contentHash(batch[j])] = normalized
			results[missIdx[start+j]] = normalized
		}
		e.mu.Unlock()
	}

	return results, nil
}

// CacheSize returns the number of cached vectors.
func (e *Embedder) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// embedBatchWithRetry runs one provider call per attempt, each under its
// own timeout, retrying transient failures with exponential backoff.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		v, err := e.provider.EmbedBatch(callCtx, texts)
		if err != nil {
			if isTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		vectors = v
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryBaseInterval
	b.MaxInterval = 10 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx))
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// isTransient reports whether the error is worth retrying: rate limits,
// server errors, timeouts, and network failures.
func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// contentHash keys the cache by exact text content.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// toFloat32 converts the provider's float64 vectors to float32 for
// storage compatibility.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
