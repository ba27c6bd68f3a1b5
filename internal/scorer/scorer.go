// Package scorer computes the resume-to-job match score: for each job
// chunk, the best-matching resume chunk by cosine similarity, aggregated
// as an importance-weighted mean on a 0-100 scale.
package scorer

import (
	"fmt"
	"math"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// Importance weights by topic tag. A job chunk tagged as a hard
// requirement counts double a nice-to-have.
const (
	TagRequiredSkill = "required-skill"
	TagNiceToHave    = "nice-to-have"

	WeightRequired   = 1.0
	WeightNiceToHave = 0.5
	WeightDefault    = 0.75
)

// Score computes the match between a resume and a job description, each
// represented as embedded chunk sets. Fails with ErrInsufficientInput
// when either side is empty: "cannot assess" is not "no match", and a
// fabricated 0 would be indistinguishable from a genuine mismatch.
func Score(resumeChunks, jobChunks []corpus.Chunk) (corpus.MatchScore, error) {
	if len(resumeChunks) == 0 || len(jobChunks) == 0 {
		return corpus.MatchScore{}, fmt.Errorf("resume chunks: %d, job chunks: %d: %w",
			len(resumeChunks), len(jobChunks), corpus.ErrInsufficientInput)
	}

	dim := len(resumeChunks[0].Vector)
	for _, set := range [][]corpus.Chunk{resumeChunks, jobChunks} {
		for _, c := range set {
			if len(c.Vector) != dim {
				return corpus.MatchScore{}, fmt.Errorf("chunk %s has %d dimensions, expected %d: %w",
					c.ID, len(c.Vector), dim, corpus.ErrDimensionMismatch)
			}
		}
	}

	segments := make([]corpus.SegmentScore, 0, len(jobChunks))
	var weightedSum, weightTotal float64

	for _, job := range jobChunks {
		bestSim := 0.0
		bestID := ""
		for _, resume := range resumeChunks {
			sim := corpus.ClipScore(corpus.Dot(job.Vector, resume.Vector))
			if sim > bestSim || bestID == "" {
				bestSim = sim
				bestID = resume.ID
			}
		}

		w := weightFor(&job)
		segments = append(segments, corpus.SegmentScore{
			JobChunkID:    job.ID,
			ResumeChunkID: bestID,
			Similarity:    bestSim,
			Weight:        w,
		})
		weightedSum += bestSim * w
		weightTotal += w
	}

	value := round2(weightedSum / weightTotal * 100)
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return corpus.MatchScore{Value: value, Segments: segments}, nil
}

// weightFor maps a job chunk's topic tags to its importance weight.
func weightFor(c *corpus.Chunk) float64 {
	switch {
	case c.HasTag(TagRequiredSkill):
		return WeightRequired
	case c.HasTag(TagNiceToHave):
		return WeightNiceToHave
	default:
		return WeightDefault
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
