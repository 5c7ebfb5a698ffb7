package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Embedder exposes Gemini content embeddings under the embedding model
// configured on the Generator.
type Embedder struct {
	generator *Generator
}

// Embedder returns the embedding view of the generator.
func (g *Generator) Embedder() *Embedder {
	return &Embedder{generator: g}
}

// Embed encodes the text into a vector via the Gemini embedContent API.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	g := e.generator
	if g == nil || g.client == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned empty embedding")
	}

	values := resp.Embeddings[0].Values
	vector := make([]float64, len(values))
	for i, v := range values {
		vector[i] = float64(v)
	}

	return vector, nil
}

// Model reports the embedding model identifier in use.
func (e *Embedder) Model() string {
	if e == nil || e.generator == nil {
		return ""
	}
	return e.generator.embeddingModel
}
