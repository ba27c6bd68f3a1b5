package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codexankiiit31/career-retrieval/internal/chunker"
	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// PrepareMatchChunks chunks and embeds resume and job-description text
// for the similarity scorer. A fresh duplicate filter is used per call so
// match inputs are never deduplicated against the content corpus or
// against earlier requests. Job chunks are tagged when a tagger is given,
// feeding the scorer's importance weights; resume chunks stay untagged.
func PrepareMatchChunks(ctx context.Context, embedder Embedder, tag Tagger, resumeText, jobText string) (resumeChunks, jobChunks []corpus.Chunk, err error) {
	now := time.Now().UTC()

	// Separate chunkers per side: shared overlap between a resume and a
	// job posting is signal for the scorer, not duplication to suppress.
	resumeChunks, err = chunker.NewChunker(0, 0).Split(corpus.Document{
		ID:        uuid.New().String(),
		Source:    "resume",
		RawText:   resumeText,
		FetchedAt: now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("resume: %w", err)
	}

	jobChunks, err = chunker.NewChunker(0, 0).Split(corpus.Document{
		ID:        uuid.New().String(),
		Source:    "job-description",
		RawText:   jobText,
		FetchedAt: now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("job description: %w", err)
	}

	if tag != nil {
		for i := range jobChunks {
			tags, tagErr := tag.Tag(ctx, jobChunks[i].Text)
			if tagErr != nil {
				continue
			}
			jobChunks[i].TopicTags = tags.Topics
			if tags.Importance != "" {
				jobChunks[i].TopicTags = append(jobChunks[i].TopicTags, tags.Importance)
			}
		}
	}

	for _, set := range []struct {
		name   string
		chunks []corpus.Chunk
	}{{"resume", resumeChunks}, {"job description", jobChunks}} {
		texts := make([]string, len(set.chunks))
		for i := range set.chunks {
			texts[i] = set.chunks[i].Text
		}
		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("embed %s: %w", set.name, err)
		}
		for i := range set.chunks {
			set.chunks[i].Vector = vectors[i]
		}
	}

	return resumeChunks, jobChunks, nil
}
