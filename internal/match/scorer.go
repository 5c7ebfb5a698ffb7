package match

import (
	"context"
	"fmt"
	"math"

	"github.com/okarpov/jobforge/internal/ai"
)

// Scorer computes an embedding-based similarity score for two projected
// texts. The result lives on a 0..100 scale but is deliberately not clamped
// here; reconciliation owns the final clamp.
type Scorer struct {
	embedder ai.Embedder
}

func NewScorer(embedder ai.Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// Score encodes both texts and returns cosine similarity scaled by 100.
// Any embedding failure is fatal to the current call and surfaces as an
// error for the caller to recover from.
func (s *Scorer) Score(ctx context.Context, profileText, jobText string) (float64, error) {
	profileVec, err := s.embedder.Embed(ctx, profileText)
	if err != nil {
		return 0, fmt.Errorf("embed profile text: %w", err)
	}

	jobVec, err := s.embedder.Embed(ctx, jobText)
	if err != nil {
		return 0, fmt.Errorf("embed job text: %w", err)
	}

	return cosine(profileVec, jobVec) * 100, nil
}

// cosine returns dot(u,v)/(‖u‖·‖v‖), defined as 0 when either norm is zero.
func cosine(u, v []float64) float64 {
	n := len(u)
	if len(v) < n {
		n = len(v)
	}

	var dot, uu, vv float64
	for i := 0; i < n; i++ {
		dot += u[i] * v[i]
		uu += u[i] * u[i]
		vv += v[i] * v[i]
	}

	if uu == 0 || vv == 0 {
		return 0
	}

	// Sqrt of the product keeps identical vectors at exactly 1: for u == v
	// the denominator equals |dot| without a second rounding step.
	return dot / math.Sqrt(uu*vv)
}
