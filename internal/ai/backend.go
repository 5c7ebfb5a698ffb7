package ai

import (
	"context"
	"time"

	"github.com/okarpov/jobforge/internal/logger"
	"go.uber.org/zap"
)

// Sentinel is returned by Backend.Generate whenever the underlying provider
// fails. Callers that want to special-case degraded output can compare
// against it, but checking the ok flag is preferred.
const Sentinel = "AI generation temporarily unavailable. Please try again later."

const defaultTimeout = 60 * time.Second

// Backend wraps a TextGenerator with the fail-soft contract: Generate never
// returns an error. Transport, auth, quota and timeout failures are logged
// and surfaced as the sentinel string with ok=false.
type Backend struct {
	generator TextGenerator
	timeout   time.Duration
	logger    *zap.Logger
	maxLogLen int
}

// NewBackend creates a fail-soft backend around the provided generator.
// A non-positive timeout falls back to the 60s default.
func NewBackend(generator TextGenerator, timeout time.Duration, maxLogLength int, log *zap.Logger) *Backend {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = 200
	}

	return &Backend{
		generator: generator,
		timeout:   timeout,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Generate sends the prompt with the given decoding parameters. The second
// return value reports whether the text came from the model; when false the
// text is the sentinel and the caller should take its local fallback path.
func (b *Backend) Generate(ctx context.Context, prompt string, params Params) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.logger.Debug("generate request",
		zap.Int("prompt_length", len(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, b.maxLogLen)),
	)

	text, err := b.generator.GenerateText(ctx, prompt, params)
	if err != nil {
		b.logger.Error("text generation failed", zap.Error(err))
		return Sentinel, false
	}

	b.logger.Debug("generate response",
		zap.Int("response_length", len(text)),
		zap.String("response_preview", logger.TruncateForLog(text, b.maxLogLen)),
	)

	return text, true
}

// Model reports the underlying generator's model identifier.
func (b *Backend) Model() string {
	if b == nil || b.generator == nil {
		return ""
	}
	return b.generator.Model()
}
