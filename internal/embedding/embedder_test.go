package embedding

import (
	"context"
	"errors"
	"math"
	"net"
	"testing"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// fakeProvider returns a distinct deterministic vector per text and can be
// programmed to fail the first N calls.
type fakeProvider struct {
	calls      int
	batchSizes []int
	failFirst  int
	failWith   error
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.calls <= f.failFirst {
		return nil, f.failWith
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1, 0}
	}
	return out, nil
}

// TestEmbed_ReturnsNormalizedVectors verifies output vectors are unit
// length in input order.
func TestEmbed_ReturnsNormalizedVectors(t *testing.T) {
	e := NewEmbedder(&fakeProvider{}, 0)

	vectors, err := e.Embed(context.Background(), []string{"short", "a longer text"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("Expected 2 vectors, got %d", len(vectors))
	}

	for i, v := range vectors {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("Vector %d is not unit length: %f", i, math.Sqrt(sum))
		}
	}

	// Different texts get different vectors.
	if vectors[0][0] == vectors[1][0] {
		t.Error("Expected distinct vectors for distinct texts")
	}
}

// TestEmbed_CachesByContent verifies repeated text costs one provider call.
func TestEmbed_CachesByContent(t *testing.T) {
	p := &fakeProvider{}
	e := NewEmbedder(p, 0)

	first, err := e.Embed(context.Background(), []string{"golang concurrency"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	second, err := e.Embed(context.Background(), []string{"golang concurrency"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if p.calls != 1 {
		t.Errorf("Expected 1 provider call, got %d", p.calls)
	}
	if e.CacheSize() != 1 {
		t.Errorf("Expected cache size 1, got %d", e.CacheSize())
	}
	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Fatal("Cached vector differs from original")
		}
	}
}

// TestEmbed_MixedHitsAndMisses verifies cache hits and new texts come back
// in input order from one call.
func TestEmbed_MixedHitsAndMisses(t *testing.T) {
	p := &fakeProvider{}
	e := NewEmbedder(p, 0)

	if _, err := e.Embed(context.Background(), []string{"cached"}); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	vectors, err := e.Embed(context.Background(), []string{"new one", "cached", "new two"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(vectors) != 3 {
		t.Fatalf("Expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if v == nil {
			t.Errorf("Vector %d is nil", i)
		}
	}
	// Second call embedded only the two misses.
	if p.batchSizes[len(p.batchSizes)-1] != 2 {
		t.Errorf("Expected final batch of 2 misses, got %d", p.batchSizes[len(p.batchSizes)-1])
	}
}

// TestEmbed_Batching verifies texts are sent in batches of at most the
// configured size.
func TestEmbed_Batching(t *testing.T) {
	p := &fakeProvider{}
	e := NewEmbedder(p, 2)

	texts := []string{"one", "two", "three", "four", "five"}
	if _, err := e.Embed(context.Background(), texts); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	expected := []int{2, 2, 1}
	if len(p.batchSizes) != len(expected) {
		t.Fatalf("Expected %d batches, got %v", len(expected), p.batchSizes)
	}
	for i, want := range expected {
		if p.batchSizes[i] != want {
			t.Errorf("Batch %d: expected size %d, got %d", i, want, p.batchSizes[i])
		}
	}
}

// TestNewEmbedder_ClampsBatchSize verifies the provider cap is enforced.
func TestNewEmbedder_ClampsBatchSize(t *testing.T) {
	e := NewEmbedder(&fakeProvider{}, 100000)
	if e.batchSize != MaxBatchSize {
		t.Errorf("Expected batch size clamped to %d, got %d", MaxBatchSize, e.batchSize)
	}

	e = NewEmbedder(&fakeProvider{}, 0)
	if e.batchSize != MaxBatchSize {
		t.Errorf("Expected default batch size %d, got %d", MaxBatchSize, e.batchSize)
	}
}

// TestEmbed_PermanentErrorFailsFast verifies non-transient provider errors
// are not retried and surface as ErrEmbeddingUnavailable.
func TestEmbed_PermanentErrorFailsFast(t *testing.T) {
	p := &fakeProvider{failFirst: 100, failWith: errors.New("invalid api key")}
	e := NewEmbedder(p, 0)

	_, err := e.Embed(context.Background(), []string{"text"})
	if !errors.Is(err, corpus.ErrEmbeddingUnavailable) {
		t.Errorf("Expected ErrEmbeddingUnavailable, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("Permanent error should not retry, got %d calls", p.calls)
	}
}

// TestEmbed_TransientErrorRetries verifies network failures are retried
// and succeed on a later attempt.
func TestEmbed_TransientErrorRetries(t *testing.T) {
	p := &fakeProvider{
		failFirst: 1,
		failWith:  &net.DNSError{Err: "temporary failure", IsTemporary: true},
	}
	e := NewEmbedder(p, 0)

	vectors, err := e.Embed(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if len(vectors) != 1 {
		t.Fatalf("Expected 1 vector, got %d", len(vectors))
	}
	if p.calls != 2 {
		t.Errorf("Expected 2 provider calls, got %d", p.calls)
	}
}

// TestEmbed_ExhaustedRetriesFail verifies persistent transient failures
// give up after the attempt budget with no partial results.
func TestEmbed_ExhaustedRetriesFail(t *testing.T) {
	p := &fakeProvider{
		failFirst: 100,
		failWith:  &net.DNSError{Err: "temporary failure", IsTemporary: true},
	}
	e := NewEmbedder(p, 0)

	vectors, err := e.Embed(context.Background(), []string{"text"})
	if !errors.Is(err, corpus.ErrEmbeddingUnavailable) {
		t.Errorf("Expected ErrEmbeddingUnavailable, got %v", err)
	}
	if vectors != nil {
		t.Error("Expected no vectors on failure")
	}
	if p.calls != maxAttempts {
		t.Errorf("Expected %d attempts, got %d", maxAttempts, p.calls)
	}
}

// TestIsTransient classifies retryable errors.
func TestIsTransient(t *testing.T) {
	if isTransient(errors.New("bad request")) {
		t.Error("Plain errors should be permanent")
	}
	if !isTransient(&net.DNSError{Err: "no route"}) {
		t.Error("Network errors should be transient")
	}
	if !isTransient(context.DeadlineExceeded) {
		t.Error("Timeouts should be transient")
	}
}
