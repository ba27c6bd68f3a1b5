// Package assembler packs retrieved chunks into a length-bounded context
// block for the downstream generation layer.
package assembler

import (
	"fmt"
	"strings"

	"github.com/codexankiiit31/career-retrieval/internal/chunker"
	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// DefaultBudgetTokens is the context budget when the caller passes 0.
const DefaultBudgetTokens = 2000

// Assemble concatenates chunk texts in result order, each prefixed with a
// source citation tag, stopping once the next chunk's token estimate
// would exceed the budget. A chunk that does not fit is dropped whole,
// never truncated mid-sentence. Deterministic for identical input.
func Assemble(results []corpus.ScoredChunk, budgetTokens int) string {
	if budgetTokens <= 0 {
		budgetTokens = DefaultBudgetTokens
	}

	var b strings.Builder
	used := 0
	for _, r := range results {
		block := citation(r.Chunk) + "\n" + r.Chunk.Text + "\n\n"
		cost := chunker.EstimateTokens(block)
		if used+cost > budgetTokens {
			break
		}
		b.WriteString(block)
		used += cost
	}
	return strings.TrimRight(b.String(), "\n")
}

// citation renders the chunk's provenance tag.
func citation(c *corpus.Chunk) string {
	if c.URL != "" {
		return fmt.Sprintf("[source: %s | %s]", c.Source, c.URL)
	}
	return fmt.Sprintf("[source: %s]", c.Source)
}
