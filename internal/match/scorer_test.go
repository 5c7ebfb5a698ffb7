package match

import (
	"context"
	"errors"
	"math"
	"testing"
)

type stubEmbedder struct {
	vectors map[string][]float64
	def     []float64
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return s.def, nil
}

func (s *stubEmbedder) Model() string { return "stub-embedding-model" }

func TestScoreIdenticalVectors(t *testing.T) {
	// Exact comparison on purpose: identical vectors must score 100 with no
	// rounding residue, including norms like sqrt(0.5) that are irrational.
	vectors := [][]float64{
		{0.5, 0.5},
		{0.5, 0.5, 0.1},
		{0.3, 0.9, 0.1, 0.7},
	}

	for _, vec := range vectors {
		embedder := &stubEmbedder{def: vec}
		scorer := NewScorer(embedder)

		score, err := scorer.Score(context.Background(), "profile text", "job text")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if score != 100 {
			t.Fatalf("expected exactly 100 for identical vectors %v, got %v", vec, score)
		}

		if embedder.calls != 2 {
			t.Fatalf("expected both texts to be embedded, got %d calls", embedder.calls)
		}
	}
}

func TestScoreOrthogonalVectors(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"a": {1, 0},
		"b": {0, 1},
	}}
	scorer := NewScorer(embedder)

	score, err := scorer.Score(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if score != 0 {
		t.Fatalf("expected score 0 for orthogonal vectors, got %v", score)
	}
}

func TestScoreZeroNormIsZero(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"":    {0, 0, 0},
		"job": {1, 2, 3},
	}}
	scorer := NewScorer(embedder)

	score, err := scorer.Score(context.Background(), "", "job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if score != 0 {
		t.Fatalf("expected 0 for zero-norm vector, got %v", score)
	}
}

func TestScoreIsNotClamped(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"a": {1, 0},
		"b": {-1, 0},
	}}
	scorer := NewScorer(embedder)

	score, err := scorer.Score(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(score-(-100)) > 1e-9 {
		t.Fatalf("expected raw score -100, got %v", score)
	}
}

func TestScorePropagatesEmbeddingFailure(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("model not loaded")}
	scorer := NewScorer(embedder)

	if _, err := scorer.Score(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"profile": {0.3, 0.9, 0.1},
		"job":     {0.2, 0.8, 0.4},
	}}
	scorer := NewScorer(embedder)

	first, err := scorer.Score(context.Background(), "profile", "job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := scorer.Score(context.Background(), "profile", "job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatalf("scores differ for identical input: %v vs %v", first, second)
	}
}
