package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okarpov/jobforge/internal/ai"
	"github.com/okarpov/jobforge/internal/ai/gemini"
	"github.com/okarpov/jobforge/internal/ai/watsonx"
	"github.com/okarpov/jobforge/internal/logger"
	"github.com/okarpov/jobforge/internal/match"
	"github.com/okarpov/jobforge/internal/posting"
	"github.com/okarpov/jobforge/internal/secrets"
	"github.com/okarpov/jobforge/internal/server"
	"go.uber.org/zap"
)

// services bundles the initialized model handles shared by all commands.
// They are created once per process and read-only afterwards.
type services struct {
	matcher  *match.Matcher
	postings *posting.Generator
	health   server.HealthInfo
}

func buildServices(ctx context.Context, config *Config, log *zap.Logger) (*services, error) {
	if config == nil || config.AI == nil {
		return nil, errors.New("ai configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	if provider == "" {
		provider = "watsonx"
	}

	var (
		generator ai.TextGenerator
		embedder  ai.Embedder
		err       error
	)

	switch provider {
	case "watsonx":
		generator, embedder, err = newWatsonxProvider(config.AI.Watsonx, log)
	case "gemini":
		generator, embedder, err = newGeminiProvider(ctx, config.AI.Gemini, log)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}
	if err != nil {
		return nil, err
	}

	aiLogger := logger.WithCommonFields(log, provider, generator.Model())

	timeout := time.Duration(config.AI.RequestTimeout) * time.Second
	backend := ai.NewBackend(generator, timeout, config.AI.MaxLogLength, aiLogger)

	scorer := match.NewScorer(embedder)

	return &services{
		matcher:  match.NewMatcher(backend, scorer, aiLogger, config.AI.MaxLogLength),
		postings: posting.NewGenerator(backend, aiLogger),
		health: server.HealthInfo{
			Provider:       provider,
			Model:          generator.Model(),
			EmbeddingModel: embedder.Model(),
		},
	}, nil
}

func newWatsonxProvider(cfg *WatsonxConfig, log *zap.Logger) (ai.TextGenerator, ai.Embedder, error) {
	if cfg == nil {
		return nil, nil, errors.New("watsonx configuration is required when the watsonx provider is selected")
	}

	apiKey, err := secrets.Resolve(secrets.Source{
		Name:  "watsonx api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "WATSONX_API_KEY",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.watsonx.api-key-file or WATSONX_API_KEY)", err)
	}

	client, err := watsonx.NewClient(watsonx.Config{
		URL:            cfg.URL,
		APIKey:         apiKey,
		ProjectID:      cfg.ProjectID,
		SpaceID:        cfg.SpaceID,
		DeploymentID:   cfg.DeploymentID,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		MaxRetries:     cfg.MaxRetries,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("building watsonx client: %w", err)
	}

	return client, client.Embedder(), nil
}

func newGeminiProvider(ctx context.Context, cfg *GeminiConfig, log *zap.Logger) (ai.TextGenerator, ai.Embedder, error) {
	if cfg == nil {
		return nil, nil, errors.New("gemini configuration is required when the gemini provider is selected")
	}

	apiKey, err := secrets.Resolve(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.EmbeddingModel, log)
	if err != nil {
		return nil, nil, fmt.Errorf("building gemini generator: %w", err)
	}

	return generator, generator.Embedder(), nil
}
