package watsonx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okarpov/jobforge/internal/ai"
)

type generationParameters struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type generationRequest struct {
	Input      string               `json:"input"`
	Parameters generationParameters `json:"parameters"`
	ModelID    string               `json:"model_id,omitempty"`
	ProjectID  string               `json:"project_id,omitempty"`
	SpaceID    string               `json:"space_id,omitempty"`
}

type generationResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
		StopReason    string `json:"stop_reason"`
	} `json:"results"`
}

// GenerateText sends the prompt to the configured deployment, or to a
// foundation model when no deployment id is set.
func (c *Client) GenerateText(ctx context.Context, prompt string, params ai.Params) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	request := generationRequest{
		Input: prompt,
		Parameters: generationParameters{
			MaxNewTokens:      params.MaxNewTokens,
			Temperature:       params.Temperature,
			TopP:              params.TopP,
			RepetitionPenalty: params.RepetitionPenalty,
		},
	}

	path := "/ml/v1/text/generation"
	if c.cfg.DeploymentID != "" {
		path = fmt.Sprintf("/ml/v1/deployments/%s/text/generation", c.cfg.DeploymentID)
	} else {
		if c.cfg.Model == "" {
			return "", errors.New("watsonx model is required when no deployment is configured")
		}
		request.ModelID = c.cfg.Model
		request.ProjectID = c.cfg.ProjectID
		request.SpaceID = c.cfg.SpaceID
	}

	var response generationResponse
	if err := c.postJSON(ctx, path, request, &response); err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}

	if len(response.Results) == 0 {
		return "", errors.New("watsonx returned no generation results")
	}

	text := strings.TrimSpace(response.Results[0].GeneratedText)
	if text == "" {
		return "", errors.New("watsonx returned empty generated text")
	}

	return text, nil
}
