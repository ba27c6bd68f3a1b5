package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codexankiiit31/career-retrieval/internal/assembler"
	"github.com/codexankiiit31/career-retrieval/internal/corpus"
	"github.com/codexankiiit31/career-retrieval/internal/index"
	"github.com/codexankiiit31/career-retrieval/internal/pipeline"
	"github.com/codexankiiit31/career-retrieval/internal/retriever"
	"github.com/codexankiiit31/career-retrieval/internal/scorer"
)

// makeSearchHandler creates the search_content tool handler.
// Search flow:
// 1. Embed the query text
// 2. Over-fetch candidates from the published index
// 3. MMR re-rank for diversity
// 4. Assemble a citation-tagged context block under the token budget
func makeSearchHandler(r *retriever.Retriever) func(
	context.Context, *mcp.CallToolRequest, SearchContentInput,
) (*mcp.CallToolResult, SearchContentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchContentInput) (
		*mcp.CallToolResult, SearchContentOutput, error,
	) {
		results, err := r.Retrieve(ctx, corpus.Query{
			Text:        input.Query,
			K:           input.MaxResults,
			TopicFilter: input.Topics,
		})
		if err != nil {
			if errors.Is(err, index.ErrNoIndex) {
				return nil, SearchContentOutput{
					Results: []ContentResult{},
					Message: "No index has been published yet. Run a sync first.",
				}, nil
			}
			return nil, SearchContentOutput{}, fmt.Errorf("retrieve: %w", err)
		}

		if len(results) == 0 {
			return nil, SearchContentOutput{
				Results: []ContentResult{},
				Message: "No matching content found. Try broader search terms or drop the topic filter.",
			}, nil
		}

		out := SearchContentOutput{
			Results: make([]ContentResult, len(results)),
			Context: assembler.Assemble(results, input.ContextBudget),
		}
		for i, r := range results {
			out.Results[i] = ContentResult{
				Text:   r.Chunk.Text,
				Score:  r.Score,
				Source: r.Chunk.Source,
				URL:    r.Chunk.URL,
				Topics: r.Chunk.TopicTags,
			}
		}
		return nil, out, nil
	}
}

// makeMatchHandler creates the match_resume tool handler. Resume and job
// text are chunked and embedded per request, then scored; the result is
// derived state and never persisted.
func makeMatchHandler(embedder pipeline.Embedder, tag pipeline.Tagger) func(
	context.Context, *mcp.CallToolRequest, MatchResumeInput,
) (*mcp.CallToolResult, MatchResumeOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input MatchResumeInput) (
		*mcp.CallToolResult, MatchResumeOutput, error,
	) {
		resumeChunks, jobChunks, err := pipeline.PrepareMatchChunks(ctx, embedder, tag, input.ResumeText, input.JobText)
		if err != nil {
			return nil, MatchResumeOutput{}, fmt.Errorf("prepare match inputs: %w", err)
		}

		score, err := scorer.Score(resumeChunks, jobChunks)
		if err != nil {
			if errors.Is(err, corpus.ErrInsufficientInput) {
				return nil, MatchResumeOutput{}, fmt.Errorf("cannot assess: resume or job description produced no usable text")
			}
			return nil, MatchResumeOutput{}, fmt.Errorf("score: %w", err)
		}

		out := MatchResumeOutput{
			Score:    score.Value,
			Segments: make([]MatchSegment, len(score.Segments)),
		}
		for i, seg := range score.Segments {
			out.Segments[i] = MatchSegment{
				JobChunkID:    seg.JobChunkID,
				ResumeChunkID: seg.ResumeChunkID,
				Similarity:    seg.Similarity,
				Weight:        seg.Weight,
			}
		}
		return nil, out, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(handle *index.Handle) func(
	context.Context, *mcp.CallToolRequest, IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IndexStatusInput) (
		*mcp.CallToolResult, IndexStatusOutput, error,
	) {
		ix := handle.Current()
		if ix == nil {
			return nil, IndexStatusOutput{}, nil
		}
		return nil, IndexStatusOutput{
			Published: true,
			Chunks:    ix.Len(),
			Dimension: ix.Dimension(),
		}, nil
	}
}
