package scorer

import (
	"errors"
	"math"
	"testing"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

func chunk(id string, vector []float32, tags ...string) corpus.Chunk {
	return corpus.Chunk{ID: id, Vector: corpus.Normalize(vector), TopicTags: tags}
}

// TestScore_CosineMapsDirectly verifies a 0.8 cosine match scores 80, not
// a rescaled value.
func TestScore_CosineMapsDirectly(t *testing.T) {
	resume := []corpus.Chunk{chunk("r1", []float32{0.8, 0.6})}
	job := []corpus.Chunk{chunk("j1", []float32{1, 0})}

	score, err := Score(resume, job)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score.Value != 80 {
		t.Errorf("Expected 80, got %f", score.Value)
	}
}

// TestScore_PerfectAndZero verifies the scale endpoints.
func TestScore_PerfectAndZero(t *testing.T) {
	resume := []corpus.Chunk{chunk("r1", []float32{1, 0})}

	score, err := Score(resume, []corpus.Chunk{chunk("j1", []float32{1, 0})})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score.Value != 100 {
		t.Errorf("Identical vectors: expected 100, got %f", score.Value)
	}

	score, err = Score(resume, []corpus.Chunk{chunk("j2", []float32{-1, 0})})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score.Value != 0 {
		t.Errorf("Opposed vectors: expected 0, got %f", score.Value)
	}
}

// TestScore_BestResumeChunkWins verifies each job chunk is matched against
// its best resume chunk, not an average.
func TestScore_BestResumeChunkWins(t *testing.T) {
	resume := []corpus.Chunk{
		chunk("r-weak", []float32{0, 1}),
		chunk("r-strong", []float32{1, 0}),
	}
	job := []corpus.Chunk{chunk("j1", []float32{1, 0})}

	score, err := Score(resume, job)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score.Value != 100 {
		t.Errorf("Expected 100 from best match, got %f", score.Value)
	}
	if len(score.Segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(score.Segments))
	}
	if score.Segments[0].ResumeChunkID != "r-strong" {
		t.Errorf("Expected r-strong as best match, got %s", score.Segments[0].ResumeChunkID)
	}
}

// TestScore_ImportanceWeights verifies required skills count double
// nice-to-haves in the aggregate.
func TestScore_ImportanceWeights(t *testing.T) {
	resume := []corpus.Chunk{chunk("r1", []float32{1, 0})}
	job := []corpus.Chunk{
		chunk("j-required", []float32{1, 0}, TagRequiredSkill), // sim 1.0, weight 1.0
		chunk("j-nice", []float32{0, 1}, TagNiceToHave),        // sim 0.0, weight 0.5
	}

	score, err := Score(resume, job)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	// (1.0*1.0 + 0.0*0.5) / 1.5 * 100 = 66.67
	if math.Abs(score.Value-66.67) > 1e-9 {
		t.Errorf("Expected 66.67, got %f", score.Value)
	}

	// Flipped importance: the miss is now the hard requirement.
	job[0].TopicTags = []string{TagNiceToHave}
	job[1].TopicTags = []string{TagRequiredSkill}
	flipped, err := Score(resume, job)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	// (1.0*0.5 + 0.0*1.0) / 1.5 * 100 = 33.33
	if math.Abs(flipped.Value-33.33) > 1e-9 {
		t.Errorf("Expected 33.33, got %f", flipped.Value)
	}
}

// TestScore_DefaultWeight verifies untagged job chunks get the middle
// weight.
func TestScore_DefaultWeight(t *testing.T) {
	resume := []corpus.Chunk{chunk("r1", []float32{1, 0})}
	job := []corpus.Chunk{chunk("j1", []float32{1, 0}, "golang")}

	score, err := Score(resume, job)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score.Segments[0].Weight != WeightDefault {
		t.Errorf("Expected default weight %f, got %f", WeightDefault, score.Segments[0].Weight)
	}
}

// TestScore_InsufficientInput verifies empty chunk sets are rejected
// rather than scored as zero.
func TestScore_InsufficientInput(t *testing.T) {
	some := []corpus.Chunk{chunk("a", []float32{1, 0})}

	_, err := Score(nil, some)
	if !errors.Is(err, corpus.ErrInsufficientInput) {
		t.Errorf("Empty resume: expected ErrInsufficientInput, got %v", err)
	}
	_, err = Score(some, nil)
	if !errors.Is(err, corpus.ErrInsufficientInput) {
		t.Errorf("Empty job: expected ErrInsufficientInput, got %v", err)
	}
	_, err = Score(nil, nil)
	if !errors.Is(err, corpus.ErrInsufficientInput) {
		t.Errorf("Both empty: expected ErrInsufficientInput, got %v", err)
	}
}

// TestScore_DimensionMismatch verifies mixed-dimension chunk sets are
// rejected.
func TestScore_DimensionMismatch(t *testing.T) {
	resume := []corpus.Chunk{chunk("r1", []float32{1, 0})}
	job := []corpus.Chunk{chunk("j1", []float32{1, 0, 0})}

	_, err := Score(resume, job)
	if !errors.Is(err, corpus.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

// TestScore_Rounding verifies two-decimal rounding of the final value.
func TestScore_Rounding(t *testing.T) {
	// cos(30°) ≈ 0.8660254 → 86.6
	resume := []corpus.Chunk{chunk("r1", []float32{float32(math.Sqrt(3)) / 2, 0.5})}
	job := []corpus.Chunk{chunk("j1", []float32{1, 0})}

	score, err := Score(resume, job)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score.Value != math.Round(score.Value*100)/100 {
		t.Errorf("Value not rounded to two decimals: %v", score.Value)
	}
	if score.Value < 86 || score.Value > 87 {
		t.Errorf("Expected roughly 86.6, got %f", score.Value)
	}
}

// TestScore_SegmentPerJobChunk verifies one segment is reported per job
// chunk with similarities in [0,1].
func TestScore_SegmentPerJobChunk(t *testing.T) {
	resume := []corpus.Chunk{
		chunk("r1", []float32{1, 0}),
		chunk("r2", []float32{0, 1}),
	}
	job := []corpus.Chunk{
		chunk("j1", []float32{1, 0}),
		chunk("j2", []float32{0.5, 0.5}),
		chunk("j3", []float32{-1, 0}),
	}

	score, err := Score(resume, job)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if len(score.Segments) != len(job) {
		t.Fatalf("Expected %d segments, got %d", len(job), len(score.Segments))
	}
	for _, seg := range score.Segments {
		if seg.Similarity < 0 || seg.Similarity > 1 {
			t.Errorf("Segment %s similarity out of range: %f", seg.JobChunkID, seg.Similarity)
		}
		if seg.ResumeChunkID == "" {
			t.Errorf("Segment %s has no matched resume chunk", seg.JobChunkID)
		}
	}
	if score.Value < 0 || score.Value > 100 {
		t.Errorf("Value out of range: %f", score.Value)
	}
}
