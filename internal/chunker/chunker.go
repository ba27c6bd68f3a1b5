// Package chunker splits raw documents into bounded, overlapping text
// chunks and suppresses near-duplicate content across sources before it
// reaches the embedding gateway.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

const (
	// DefaultWindowTokens is the target chunk size. Sentences are packed
	// until the estimate reaches this value.
	DefaultWindowTokens = 300

	// MaxWindowTokens is the hard ceiling; a single run of text longer than
	// this is split mid-paragraph on word boundaries.
	MaxWindowTokens = 400

	// DefaultOverlapTokens is carried from the tail of one chunk into the
	// next so boundary context is not lost (~17% of the window).
	DefaultOverlapTokens = 50
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Chunker cuts documents into token-windowed chunks. A single Chunker is
// shared across an ingestion run so the duplicate filter spans sources;
// it is safe for concurrent use.
type Chunker struct {
	windowTokens  int
	overlapTokens int

	mu   sync.Mutex
	seen map[string]struct{} // normalized content hashes
	dups int
}

// NewChunker creates a chunker with the given window and overlap sizes in
// estimated tokens. Zero values select the defaults.
func NewChunker(windowTokens, overlapTokens int) *Chunker {
	if windowTokens <= 0 {
		windowTokens = DefaultWindowTokens
	}
	if overlapTokens <= 0 {
		overlapTokens = DefaultOverlapTokens
	}
	if overlapTokens >= windowTokens {
		overlapTokens = windowTokens / 5
	}
	return &Chunker{
		windowTokens:  windowTokens,
		overlapTokens: overlapTokens,
		seen:          make(map[string]struct{}),
	}
}

// EstimateTokens estimates the token count of s. Uses the rough 4
// characters per token heuristic; the same estimator is shared with the
// context assembler so budgets line up.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// Split cuts a document into chunks. Markdown documents are pre-split at
// heading boundaries first so windows do not straddle sections. Returns
// ErrMalformedDocument if the text is empty or non-text after markup
// stripping; the caller skips the document and continues.
func (c *Chunker) Split(doc corpus.Document) ([]corpus.Chunk, error) {
	text := stripMarkup(doc.RawText)
	if !isText(text) {
		return nil, fmt.Errorf("document %s: %w", doc.ID, corpus.ErrMalformedDocument)
	}

	sections := splitSections([]byte(doc.RawText))

	var chunks []corpus.Chunk
	for _, sec := range sections {
		for _, window := range c.windows(stripMarkup(sec.text)) {
			body := window
			if sec.headerPath != "" {
				body = sec.headerPath + "\n\n" + window
			}
			if c.isDuplicate(body) {
				continue
			}
			chunks = append(chunks, corpus.Chunk{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				Text:       body,
				TokenCount: EstimateTokens(body),
				Source:     doc.Source,
				URL:        doc.URL,
			})
		}
	}

	if len(chunks) == 0 {
		// Everything deduplicated away: the document added nothing new,
		// which is not an error.
		return nil, nil
	}
	return chunks, nil
}

// windows packs sentences into overlapping token windows.
func (c *Chunker) windows(text string) []string {
	pieces := splitSentences(text)
	if len(pieces) == 0 {
		return nil
	}

	var out []string
	var current []string
	currentTokens := 0
	pending := false // current holds pieces not yet emitted in any window

	flush := func() {
		if !pending {
			return
		}
		out = append(out, strings.TrimSpace(strings.Join(current, " ")))
		pending = false

		// Carry the tail into the next window as overlap.
		var tail []string
		tailTokens := 0
		for i := len(current) - 1; i >= 0 && tailTokens < c.overlapTokens; i-- {
			tail = append([]string{current[i]}, tail...)
			tailTokens += EstimateTokens(current[i])
		}
		current = tail
		currentTokens = tailTokens
	}

	for _, piece := range pieces {
		pt := EstimateTokens(piece)
		if pt > MaxWindowTokens {
			flush()
			current = nil
			currentTokens = 0
			out = append(out, splitWords(piece, MaxWindowTokens)...)
			continue
		}
		if currentTokens+pt > c.windowTokens && pending {
			flush()
		}
		current = append(current, piece)
		currentTokens += pt
		pending = true
	}
	flush()
	return out
}

// isDuplicate records the normalized content hash and reports whether it
// was already seen in this ingestion run.
func (c *Chunker) isDuplicate(text string) bool {
	h := NormalizedHash(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[h]; ok {
		c.dups++
		return true
	}
	c.seen[h] = struct{}{}
	return false
}

// DuplicateCount reports how many chunks were suppressed as duplicates in
// this ingestion run.
func (c *Chunker) DuplicateCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dups
}

// NormalizedHash returns the SHA-256 of text lowercased with whitespace
// collapsed. Mirrored sites reproducing the same tutorial text hash
// identically even when formatting differs.
func NormalizedHash(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// stripMarkup removes HTML tags and collapses runs of blank lines.
func stripMarkup(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// isText reports whether s contains at least some letters or digits.
func isText(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// splitSentences splits text into sentence-ish pieces: paragraph breaks
// first, then sentence terminators within long paragraphs.
func splitSentences(text string) []string {
	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		start := 0
		runes := []rune(para)
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				piece := strings.TrimSpace(string(runes[start : i+1]))
				if piece != "" {
					pieces = append(pieces, piece)
				}
				start = i + 1
			}
		}
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			pieces = append(pieces, tail)
		}
	}
	return pieces
}

// splitWords hard-splits an oversized piece on word boundaries into parts
// of at most maxTokens each.
func splitWords(piece string, maxTokens int) []string {
	words := strings.Fields(piece)
	var parts []string
	var current []string
	tokens := 0
	for _, w := range words {
		wt := EstimateTokens(w) + 1
		if tokens+wt > maxTokens && len(current) > 0 {
			parts = append(parts, strings.Join(current, " "))
			current = nil
			tokens = 0
		}
		current = append(current, w)
		tokens += wt
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, " "))
	}
	return parts
}
