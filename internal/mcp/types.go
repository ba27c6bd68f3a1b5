// Package mcp exposes the retrieval engine to downstream generation
// layers over the Model Context Protocol: semantic content search with an
// assembled context block, resume-to-job match scoring, and index status.
package mcp

// SearchContentInput defines the input parameters for the search_content tool.
type SearchContentInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant career content"`
	// MaxResults is the maximum number of chunks to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of chunks to return"`
	// Topics restricts candidates to chunks carrying any of these tags.
	Topics []string `json:"topics,omitempty" jsonschema:"description=Optional topic tags to filter candidates before ranking"`
	// ContextBudget is the token budget for the assembled context block.
	ContextBudget int `json:"context_budget,omitempty" jsonschema:"minimum=100,maximum=8000,default=2000,description=Token budget for the assembled context block"`
}

// SearchContentOutput contains the ranked results and the assembled
// context block.
type SearchContentOutput struct {
	// Results is the diverse top-k chunk set in ranked order.
	Results []ContentResult `json:"results"`
	// Context is the citation-tagged context block, ready for prompting.
	Context string `json:"context"`
	// Message provides informational context (e.g. "no matching content").
	Message string `json:"message,omitempty"`
}

// ContentResult is a single retrieved chunk with provenance.
type ContentResult struct {
	// Text is the chunk content.
	Text string `json:"text"`
	// Score is the query similarity (0-1).
	Score float64 `json:"score"`
	// Source identifies the connector that produced the chunk.
	Source string `json:"source"`
	// URL is the origin URL when known.
	URL string `json:"url,omitempty"`
	// Topics are the chunk's topic tags.
	Topics []string `json:"topics,omitempty"`
}

// MatchResumeInput defines the input parameters for the match_resume tool.
type MatchResumeInput struct {
	// ResumeText is the extracted plain text of the resume.
	ResumeText string `json:"resume_text" jsonschema:"required,description=Plain text extracted from the resume"`
	// JobText is the job description plain text.
	JobText string `json:"job_text" jsonschema:"required,description=Plain text of the job description"`
}

// MatchResumeOutput contains the match score and its per-segment
// contributions.
type MatchResumeOutput struct {
	// Score is the overall match value in [0,100].
	Score float64 `json:"score"`
	// Segments break the score down per job-description chunk.
	Segments []MatchSegment `json:"segments"`
}

// MatchSegment is one job chunk's contribution to the match score.
type MatchSegment struct {
	JobChunkID    string  `json:"job_chunk_id"`
	ResumeChunkID string  `json:"resume_chunk_id"`
	Similarity    float64 `json:"similarity"`
	Weight        float64 `json:"weight"`
}

// IndexStatusInput defines the input for the index_status tool. No
// parameters required.
type IndexStatusInput struct{}

// IndexStatusOutput reports the published index's shape.
type IndexStatusOutput struct {
	// Published indicates whether an index is currently serving queries.
	Published bool `json:"published"`
	// Chunks is the number of indexed chunks.
	Chunks int `json:"chunks"`
	// Dimension is the index's vector dimensionality.
	Dimension int `json:"dimension"`
}
