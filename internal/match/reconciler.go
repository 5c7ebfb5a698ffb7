package match

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/okarpov/jobforge/internal/ai"
	"github.com/okarpov/jobforge/internal/logger"
	"go.uber.org/zap"
)

//go:embed analysis_prompt.md
var analysisPromptTemplate string

const defaultMaxLogLength = 200

// Analysis is the qualitative part of a match result. MatchScore is always
// reconciled to equal the top-level result score before being returned.
type Analysis struct {
	MatchScore      float64  `json:"match_score"      mapstructure:"match_score"`
	Strengths       []string `json:"strengths"        mapstructure:"strengths"`
	Gaps            []string `json:"gaps"             mapstructure:"gaps"`
	Recommendations []string `json:"recommendations"  mapstructure:"recommendations"`
}

// Result is returned by Matcher.Analyze. MatchScore is in [0,100] and equal
// to Analysis.MatchScore.
type Result struct {
	MatchScore float64  `json:"match_score"`
	Analysis   Analysis `json:"analysis"`
}

// Matcher scores a (profile, job) pair: embedding similarity provides the
// base score, the generative backend provides the qualitative analysis, and
// reconciliation merges the two into one consistent result.
type Matcher struct {
	backend   *ai.Backend
	scorer    *Scorer
	logger    *zap.Logger
	maxLogLen int
}

func NewMatcher(backend *ai.Backend, scorer *Scorer, log *zap.Logger, maxLogLength int) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Matcher{
		backend:   backend,
		scorer:    scorer,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Analyze never returns an error: every failure mode degrades to a
// well-formed result. Embedding failure yields the neutral fallback,
// unparseable model output yields the base score with generic analysis text.
func (m *Matcher) Analyze(ctx context.Context, profile, job Record) *Result {
	profileText := Project(profile, ProfileFields)
	jobText := Project(job, JobFields)

	baseScore, err := m.scorer.Score(ctx, profileText, jobText)
	if err != nil {
		m.logger.Error("embedding similarity failed", zap.Error(err))
		return unavailableResult()
	}

	prompt := buildAnalysisPrompt(profileText, jobText)

	m.logger.Debug("analysis request",
		zap.Float64("base_score", baseScore),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, generated := m.backend.Generate(ctx, prompt, ai.DefaultParams())

	analysis, hasScore, ok := parseAnalysis(raw)
	if !generated || !ok {
		m.logger.Debug("falling back to base score",
			zap.Bool("generated", generated),
			zap.Bool("parsed", ok),
			zap.String("response_preview", logger.TruncateForLog(raw, m.maxLogLen)),
		)
		return reconcile(baseScore, fallbackAnalysis())
	}

	score := baseScore
	if hasScore {
		score = analysis.MatchScore
	}

	return reconcile(score, analysis)
}

// reconcile clamps the score and overwrites the analysis copy so the two
// can never diverge.
func reconcile(score float64, analysis Analysis) *Result {
	final := clamp(score, 0, 100)
	analysis.MatchScore = final

	return &Result{
		MatchScore: final,
		Analysis:   analysis,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func buildAnalysisPrompt(profileText, jobText string) string {
	template := analysisPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Candidate:\n{{PROFILE_TEXT}}\n\nJob:\n{{JOB_TEXT}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{PROFILE_TEXT}}", profileText)
	prompt = strings.ReplaceAll(prompt, "{{JOB_TEXT}}", jobText)
	return prompt
}

// fallbackAnalysis is the generic analysis used when the model output could
// not be interpreted. Its score is filled in during reconciliation.
func fallbackAnalysis() Analysis {
	return Analysis{
		Strengths:       []string{"Profile matches job requirements"},
		Gaps:            []string{"Some requirements may not be fully met"},
		Recommendations: []string{"Review job requirements and highlight relevant experience"},
	}
}

// unavailableResult is the global neutral fallback used when the scoring
// call itself failed.
func unavailableResult() *Result {
	return reconcile(50.0, Analysis{
		Strengths:       []string{"Unable to analyze at this time"},
		Gaps:            []string{"Analysis unavailable"},
		Recommendations: []string{"Please try again later"},
	})
}
