package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexankiiit31/career-retrieval/internal/chunker"
	"github.com/codexankiiit31/career-retrieval/internal/corpus"
	"github.com/codexankiiit31/career-retrieval/internal/tagger"
)

type fakeSource struct {
	name string
	docs []corpus.Document
	err  error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Documents(ctx context.Context) ([]corpus.Document, error) {
	return f.docs, f.err
}

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1, 0.5}
	}
	return out, nil
}

type fakeTagger struct{}

func (f *fakeTagger) Tag(ctx context.Context, text string) (*tagger.Tags, error) {
	return &tagger.Tags{Topics: []string{"golang"}, Importance: "required-skill"}, nil
}

func testDocs(n int) []corpus.Document {
	docs := make([]corpus.Document, n)
	for i := range docs {
		docs[i] = corpus.Document{
			ID:      fmt.Sprintf("doc-%03d", i),
			Source:  "test",
			RawText: fmt.Sprintf("Document %03d covers a distinct topic in backend engineering practice.", i),
		}
	}
	return docs
}

func TestBuild_ProducesSearchableIndex(t *testing.T) {
	b := NewBuilder(chunker.NewChunker(0, 0), &fakeEmbedder{}, nil, 2, slog.Default())

	ix, result, err := b.Build(context.Background(), &fakeSource{name: "test", docs: testDocs(5)})
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalDocs)
	assert.Equal(t, 5, result.TotalChunks)
	assert.Empty(t, result.SkippedDocs)
	assert.Equal(t, 5, ix.Len())
	assert.Equal(t, 3, ix.Dimension())

	for _, chunk := range ix.Chunks() {
		assert.NotEmpty(t, chunk.Vector, "every indexed chunk carries a vector")
	}
}

func TestBuild_SkipsFailingDocuments(t *testing.T) {
	docs := testDocs(3)
	docs = append(docs, corpus.Document{ID: "bad-doc", Source: "test", RawText: "<br/><hr/>"})

	b := NewBuilder(chunker.NewChunker(0, 0), &fakeEmbedder{}, nil, 2, slog.Default())
	ix, result, err := b.Build(context.Background(), &fakeSource{name: "test", docs: docs})
	require.NoError(t, err, "one bad document must not fail the build")

	assert.Equal(t, 4, result.TotalDocs)
	assert.Equal(t, 3, ix.Len())
	require.Len(t, result.SkippedDocs, 1)
	assert.Equal(t, "bad-doc", result.SkippedDocs[0].DocumentID)
	assert.Contains(t, result.SkippedDocs[0].Reason, "malformed")
}

func TestBuild_CountsSuppressedDuplicates(t *testing.T) {
	docs := []corpus.Document{
		{ID: "doc-a", Source: "site-a", RawText: "The same tutorial text mirrored on two sites."},
		{ID: "doc-b", Source: "site-b", RawText: "The same tutorial text mirrored on two sites."},
	}

	b := NewBuilder(chunker.NewChunker(0, 0), &fakeEmbedder{}, nil, 1, slog.Default())
	ix, result, err := b.Build(context.Background(), &fakeSource{name: "test", docs: docs})
	require.NoError(t, err)

	assert.Equal(t, 1, ix.Len(), "mirrored content is indexed once")
	assert.Equal(t, 1, result.DuplicateChunks)
	assert.Empty(t, result.SkippedDocs, "a fully duplicated document is not a skip")
}

func TestBuild_SourceErrorIsFatal(t *testing.T) {
	b := NewBuilder(chunker.NewChunker(0, 0), &fakeEmbedder{}, nil, 1, slog.Default())

	_, _, err := b.Build(context.Background(),
		&fakeSource{name: "good", docs: testDocs(1)},
		&fakeSource{name: "broken", err: errors.New("connection refused")},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestBuild_MergesMultipleSources(t *testing.T) {
	b := NewBuilder(chunker.NewChunker(0, 0), &fakeEmbedder{}, nil, 2, slog.Default())

	first := testDocs(2)
	second := []corpus.Document{{
		ID:      "other-doc",
		Source:  "other",
		RawText: "Entirely different content from the second connector.",
	}}

	ix, result, err := b.Build(context.Background(),
		&fakeSource{name: "a", docs: first},
		&fakeSource{name: "b", docs: second},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalDocs)
	assert.Equal(t, 3, ix.Len())
}

func TestBuild_InsertionOrderIsSorted(t *testing.T) {
	b := NewBuilder(chunker.NewChunker(0, 0), &fakeEmbedder{}, nil, 4, slog.Default())

	ix, _, err := b.Build(context.Background(), &fakeSource{name: "test", docs: testDocs(20)})
	require.NoError(t, err)

	ids := make([]string, 0, ix.Len())
	for _, chunk := range ix.Chunks() {
		ids = append(ids, chunk.ID)
	}
	assert.True(t, sort.StringsAreSorted(ids), "chunks must be inserted in ID order")
}

func TestBuild_AppliesTags(t *testing.T) {
	b := NewBuilder(chunker.NewChunker(0, 0), &fakeEmbedder{}, &fakeTagger{}, 2, slog.Default())

	ix, _, err := b.Build(context.Background(), &fakeSource{name: "test", docs: testDocs(2)})
	require.NoError(t, err)

	for _, chunk := range ix.Chunks() {
		assert.True(t, chunk.HasTag("golang"))
		assert.True(t, chunk.HasTag("required-skill"), "importance joins the topic tags")
	}
}

func TestProcessDocument_AssignsVectors(t *testing.T) {
	e := &fakeEmbedder{}
	b := NewBuilder(chunker.NewChunker(0, 0), e, nil, 1, slog.Default())

	chunks, err := b.ProcessDocument(context.Background(), corpus.Document{
		ID:      "doc-1",
		Source:  "test",
		RawText: "A single short document about Go services.",
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Vector, 3)
	assert.Equal(t, 1, e.calls)
}

func TestProcessDocument_FullyDeduplicated(t *testing.T) {
	ch := chunker.NewChunker(0, 0)
	b := NewBuilder(ch, &fakeEmbedder{}, nil, 1, slog.Default())

	doc := corpus.Document{ID: "doc-1", Source: "test", RawText: "Repeated content about Go."}
	first, err := b.ProcessDocument(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, first, 1)

	doc.ID = "doc-2"
	second, err := b.ProcessDocument(context.Background(), doc)
	require.NoError(t, err, "a fully duplicated document is not an error")
	assert.Nil(t, second)
}
