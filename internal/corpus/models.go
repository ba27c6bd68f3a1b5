// Package corpus defines the shared data model for the career content
// retrieval engine: documents handed in by scraping/extraction
// collaborators, the chunks cut from them, and the scored results the
// engine returns.
package corpus

import "time"

// Document is a raw unit of scraped or extracted text. Documents are
// immutable once ingested; a re-scrape produces a new Document that
// supersedes the old one wholesale.
type Document struct {
	ID        string    // UUID
	Source    string    // Connector identifier, e.g. "fs:roadmaps" or "github:owner/repo"
	URL       string    // Origin URL when known
	RawText   string    // Unprocessed text content
	FetchedAt time.Time // When the connector produced this document
}

// Chunk is a bounded span of document text plus its embedding vector and
// metadata. Chunks belong to exactly one index; they have no life of their
// own outside it.
type Chunk struct {
	ID         string    // UUID, ascending order is the ranking tie-breaker
	DocumentID string    // Parent Document.ID
	Text       string    // Chunk text content
	TokenCount int       // Estimated tokens (~4 chars per token)
	TopicTags  []string  // Topic labels, e.g. "golang", "required-skill"
	Source     string    // Copied from parent document (for citations)
	URL        string    // Copied from parent document (for citations)
	Vector     []float32 // L2-normalized embedding, dimension fixed per index
}

// HasTag reports whether the chunk carries the given topic tag.
func (c *Chunk) HasTag(tag string) bool {
	for _, t := range c.TopicTags {
		if t == tag {
			return true
		}
	}
	return false
}

// ScoredChunk pairs a chunk with its similarity score against a query.
// Score is cosine similarity clipped to [0,1].
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// Query is an ephemeral retrieval request. Vector may be nil, in which
// case the retriever embeds Text first.
type Query struct {
	Text        string
	Vector      []float32
	K           int
	TopicFilter []string // Restrict candidates to chunks carrying any of these tags
}

// SegmentScore records one job chunk's contribution to a match score.
type SegmentScore struct {
	JobChunkID    string  `json:"job_chunk_id"`
	ResumeChunkID string  `json:"resume_chunk_id"` // Best-matching resume chunk
	Similarity    float64 `json:"similarity"`      // Cosine, clipped to [0,1]
	Weight        float64 `json:"weight"`          // Importance weight from topic tags
}

// MatchScore is a resume-to-job match result in [0,100]. It is derived
// state, recomputed on demand; only the embeddings it comes from are
// authoritative.
type MatchScore struct {
	Value    float64        `json:"value"`
	Segments []SegmentScore `json:"segments"`
}
