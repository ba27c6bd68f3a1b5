// Package pipeline orchestrates an index build: documents from the
// connectors are chunked, tagged, embedded, and assembled into a fresh
// in-memory index. A build runs to completion off to the side; the caller
// publishes the result through an index.Handle, so queries never see a
// partially built index.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/codexankiiit31/career-retrieval/internal/chunker"
	"github.com/codexankiiit31/career-retrieval/internal/corpus"
	"github.com/codexankiiit31/career-retrieval/internal/index"
	"github.com/codexankiiit31/career-retrieval/internal/tagger"
)

// DefaultWorkers bounds concurrent document processing. Each worker may
// hold an embedding batch in flight, so this also caps provider pressure.
const DefaultWorkers = 4

// Source is an upstream connector handing documents to the engine.
type Source interface {
	Name() string
	Documents(ctx context.Context) ([]corpus.Document, error)
}

// Embedder is the embedding gateway surface the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Tagger classifies chunk text. Optional; a nil tagger leaves chunks
// untagged.
type Tagger interface {
	Tag(ctx context.Context, text string) (*tagger.Tags, error)
}

// SkippedDoc records a document that failed to process and why.
type SkippedDoc struct {
	DocumentID string
	Source     string
	Reason     string
}

// BuildResult contains statistics about a completed build.
type BuildResult struct {
	TotalDocs       int
	TotalChunks     int
	DuplicateChunks int
	SkippedDocs     []SkippedDoc
	Duration        time.Duration
}

// Builder runs index builds.
type Builder struct {
	chunker  *chunker.Chunker
	embedder Embedder
	tagger   Tagger
	workers  int
	logger   *slog.Logger
}

// NewBuilder creates a build pipeline. tag may be nil; workers <= 0
// selects DefaultWorkers.
func NewBuilder(ch *chunker.Chunker, embedder Embedder, tag Tagger, workers int, logger *slog.Logger) *Builder {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		chunker:  ch,
		embedder: embedder,
		tagger:   tag,
		workers:  workers,
		logger:   logger,
	}
}

// Build gathers documents from all sources and processes them through a
// bounded worker pool into a new index. Per-document failures are
// isolated: the document is recorded as skipped and the build continues.
// The returned index is complete and ready to publish.
func (b *Builder) Build(ctx context.Context, sources ...Source) (*index.Index, *BuildResult, error) {
	start := time.Now()
	result := &BuildResult{}

	var docs []corpus.Document
	for _, src := range sources {
		loaded, err := src.Documents(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load source %s: %w", src.Name(), err)
		}
		docs = append(docs, loaded...)
	}
	result.TotalDocs = len(docs)
	b.logger.Info("starting index build", "documents", len(docs), "workers", b.workers)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		allChunks []corpus.Chunk
	)
	sem := make(chan struct{}, b.workers)

	for _, doc := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(doc corpus.Document) {
			defer wg.Done()
			defer func() { <-sem }()

			chunks, err := b.ProcessDocument(ctx, doc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.logger.Warn("skipping document", "document", doc.ID, "source", doc.Source, "error", err)
				result.SkippedDocs = append(result.SkippedDocs, SkippedDoc{
					DocumentID: doc.ID,
					Source:     doc.Source,
					Reason:     err.Error(),
				})
				return
			}
			allChunks = append(allChunks, chunks...)
		}(doc)
	}
	wg.Wait()

	// Insertion order is part of the ranking tie-break surface; sort by
	// chunk ID so repeated builds of the same corpus produce identical
	// indexes.
	sort.Slice(allChunks, func(i, j int) bool { return allChunks[i].ID < allChunks[j].ID })

	ix := index.New()
	for _, chunk := range allChunks {
		if err := ix.Insert(chunk); err != nil {
			return nil, nil, fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	result.TotalChunks = ix.Len()
	result.DuplicateChunks = b.chunker.DuplicateCount()
	result.Duration = time.Since(start)
	b.logger.Info("index build complete",
		"chunks", result.TotalChunks,
		"duplicates", result.DuplicateChunks,
		"skipped", len(result.SkippedDocs),
		"duration", result.Duration,
	)

	return ix, result, nil
}

// ProcessDocument chunks, tags, and embeds a single document. Also used
// directly by the match path for resume and job-description text.
func (b *Builder) ProcessDocument(ctx context.Context, doc corpus.Document) ([]corpus.Chunk, error) {
	chunks, err := b.chunker.Split(doc)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	if b.tagger != nil {
		b.tagChunks(ctx, chunks)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}

	return chunks, nil
}

// tagChunks applies best-effort topic tags. A tagging failure leaves the
// chunk untagged and the build moving.
func (b *Builder) tagChunks(ctx context.Context, chunks []corpus.Chunk) {
	for i := range chunks {
		tags, err := b.tagger.Tag(ctx, chunks[i].Text)
		if err != nil {
			b.logger.Warn("tagging failed, leaving chunk untagged",
				"chunk", chunks[i].ID, "error", err)
			continue
		}
		chunks[i].TopicTags = tags.Topics
		if tags.Importance != "" {
			chunks[i].TopicTags = append(chunks[i].TopicTags, tags.Importance)
		}
	}
}
