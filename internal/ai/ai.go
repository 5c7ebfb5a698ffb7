package ai

import "context"

// Params carries the decoding parameters sent with every generation request.
// The defaults reproduce the regime the service was tuned for; callers only
// deviate from them for long-form outputs.
type Params struct {
	MaxNewTokens      int
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
}

// DefaultParams returns the standard decoding parameters.
func DefaultParams() Params {
	return Params{
		MaxNewTokens:      800,
		Temperature:       0.7,
		TopP:              0.9,
		RepetitionPenalty: 1.1,
	}
}

// LongFormParams returns decoding parameters for detailed long-form outputs
// such as full job descriptions.
func LongFormParams() Params {
	p := DefaultParams()
	p.MaxNewTokens = 1000
	return p
}

// TextGenerator produces raw text from a prompt. Implementations may fail
// with transport, auth or quota errors; degradation is handled by Backend.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, params Params) (string, error)
	Model() string
}

// Embedder converts text into a fixed-length vector. Implementations must be
// deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
}
