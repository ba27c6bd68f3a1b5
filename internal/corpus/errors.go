package corpus

import "errors"

var (
	// ErrMalformedDocument marks a document whose text is empty or non-text
	// after markup stripping. Ingestion skips the document and continues.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrEmbeddingUnavailable is surfaced after the embedding provider fails
	// all retry attempts or times out. Callers skip the chunk (ingestion) or
	// abort the query; a zero vector is never substituted.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrDimensionMismatch marks a vector whose length differs from the
	// index's established dimensionality. Fatal to the single insert or
	// query, not to the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexCorrupt marks a persisted index blob that is truncated,
	// unreadable, or of an unknown format version. Callers rebuild from
	// source documents instead of serving partial data.
	ErrIndexCorrupt = errors.New("index blob corrupt")

	// ErrInsufficientInput marks a degenerate scoring request (empty resume
	// or job chunk set). Callers treat it as "cannot assess", never as a
	// zero score.
	ErrInsufficientInput = errors.New("insufficient input for scoring")
)
