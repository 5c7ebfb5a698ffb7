package watsonx

import (
	"context"
	"errors"
	"fmt"
)

const defaultEmbeddingModel = "ibm/slate-30m-english-rtrvr"

type embeddingRequest struct {
	ModelID   string   `json:"model_id"`
	Inputs    []string `json:"inputs"`
	ProjectID string   `json:"project_id,omitempty"`
	SpaceID   string   `json:"space_id,omitempty"`
}

type embeddingResponse struct {
	Results []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"results"`
}

// Embedder exposes the text embedding endpoint of a watsonx client under
// its own model identifier.
type Embedder struct {
	client *Client
}

// Embedder returns the embedding view of the client.
func (c *Client) Embedder() *Embedder {
	return &Embedder{client: c}
}

// Embed encodes the text into a fixed-length vector using the configured
// embedding model.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	c := e.client

	request := embeddingRequest{
		ModelID:   e.Model(),
		Inputs:    []string{text},
		ProjectID: c.cfg.ProjectID,
		SpaceID:   c.cfg.SpaceID,
	}

	var response embeddingResponse
	if err := c.postJSON(ctx, "/ml/v1/text/embeddings", request, &response); err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	if len(response.Results) == 0 || len(response.Results[0].Embedding) == 0 {
		return nil, errors.New("watsonx returned no embedding")
	}

	return response.Results[0].Embedding, nil
}

// Model reports the embedding model identifier in use.
func (e *Embedder) Model() string {
	if e.client.cfg.EmbeddingModel == "" {
		return defaultEmbeddingModel
	}
	return e.client.cfg.EmbeddingModel
}
