package posting

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"github.com/okarpov/jobforge/internal/ai"
	"github.com/okarpov/jobforge/internal/match"
	"go.uber.org/zap"
)

//go:embed store_prompt.md
var storePromptTemplate string

//go:embed description_prompt.md
var descriptionPromptTemplate string

//go:embed summary_prompt.md
var summaryPromptTemplate string

const summaryTruncateLimit = 200

// StorePosting is the full generation output for a local store job posting.
type StorePosting struct {
	EnhancedDescription string `json:"enhanced_description"`
	Summary             string `json:"summary"`
	FormattedPost       string `json:"formatted_post"`
}

// Generator produces job posting texts via the generative backend. Every
// operation is fail-soft: on degraded generation it falls back to a
// deterministic rendition built only from the structured input.
type Generator struct {
	backend *ai.Backend
	logger  *zap.Logger
}

func NewGenerator(backend *ai.Backend, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{backend: backend, logger: log}
}

// GenerateStorePosting creates an enhanced description, a short summary and
// a formatted mobile-friendly post for a store job.
func (g *Generator) GenerateStorePosting(ctx context.Context, input match.Record) *StorePosting {
	prompt := fillTemplate(storePromptTemplate, map[string]string{
		"JOB_TITLE":            field(input, "job_title", ""),
		"STORE_NAME":           field(input, "store_name", ""),
		"LOCATION":             field(input, "location", ""),
		"KEY_RESPONSIBILITIES": field(input, "key_responsibilities", "Not specified"),
		"SKILLS_REQUIRED":      field(input, "skills_required", "Not specified"),
		"WORKING_HOURS":        field(input, "working_hours", "Not specified"),
		"WORKING_DAYS":         field(input, "working_days", "Not specified"),
		"SALARY":               field(input, "salary", "Competitive salary"),
		"JOB_TYPE":             field(input, "job_type", "Full-time"),
		"CONTACT_INFO":         field(input, "contact_info", "Apply in person"),
		"ADDITIONAL_INFO":      field(input, "additional_info", ""),
	})

	description, ok := g.backend.Generate(ctx, prompt, ai.LongFormParams())
	if !ok {
		g.logger.Warn("store posting generation degraded, using deterministic fallback")
		fallback := fallbackDescription(input)
		return &StorePosting{
			EnhancedDescription: fallback,
			Summary:             fallbackStoreSummary(input),
			FormattedPost:       fallback,
		}
	}

	summary, ok := g.backend.Generate(ctx, fillTemplate(summaryPromptTemplate, map[string]string{
		"DESCRIPTION": description,
	}), ai.DefaultParams())
	if !ok {
		summary = fallbackStoreSummary(input)
	}

	return &StorePosting{
		EnhancedDescription: description,
		Summary:             summary,
		FormattedPost:       formatStorePost(input, description),
	}
}

// GenerateDescription enhances a job posting's description. When generation
// is degraded the posting's own description is returned unchanged.
func (g *Generator) GenerateDescription(ctx context.Context, job match.Record) string {
	prompt := fillTemplate(descriptionPromptTemplate, map[string]string{
		"TITLE":            field(job, "title", ""),
		"COMPANY":          field(job, "company", ""),
		"LOCATION":         field(job, "location", ""),
		"DESCRIPTION":      field(job, "description", ""),
		"REQUIREMENTS":     field(job, "requirements", ""),
		"EXPERIENCE_LEVEL": field(job, "experience_level", ""),
		"JOB_TYPE":         field(job, "job_type", ""),
	})

	description, ok := g.backend.Generate(ctx, prompt, ai.LongFormParams())
	if !ok {
		return field(job, "description", "")
	}

	return description
}

// Summarize produces a short summary of an existing description. When
// generation is degraded the description is truncated instead.
func (g *Generator) Summarize(ctx context.Context, description string) string {
	summary, ok := g.backend.Generate(ctx, fillTemplate(summaryPromptTemplate, map[string]string{
		"DESCRIPTION": description,
	}), ai.DefaultParams())
	if !ok {
		return truncate(description, summaryTruncateLimit)
	}

	return summary
}

func fillTemplate(template string, values map[string]string) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return strings.TrimSpace(template)
}

// field reads a record value as a trimmed string, substituting fallback
// when the value is absent or empty.
func field(record match.Record, key, fallback string) string {
	value, ok := record[key]
	if !ok || value == nil {
		return fallback
	}

	rendered := strings.TrimSpace(fmt.Sprintf("%v", value))
	if rendered == "" {
		return fallback
	}

	return rendered
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// formatStorePost renders the structured, mobile-friendly post around the
// generated description. Deterministic; no model call.
func formatStorePost(input match.Record, description string) string {
	return strings.TrimSpace(fmt.Sprintf(`🏪 **%s**
📍 %s - %s

%s

📋 **Quick Details:**
• Working Hours: %s
• Working Days: %s
• Salary: %s
• Job Type: %s

📞 **How to Apply:**
%s`,
		field(input, "job_title", "Job Position"),
		field(input, "store_name", "Local Store"),
		field(input, "location", "Location TBD"),
		description,
		field(input, "working_hours", "To be discussed"),
		field(input, "working_days", "To be discussed"),
		field(input, "salary", "Competitive"),
		field(input, "job_type", "Full-time"),
		field(input, "contact_info", "Apply in person at the store location"),
	))
}

// fallbackDescription builds a basic posting from the structured input when
// the model is unavailable.
func fallbackDescription(input match.Record) string {
	return strings.TrimSpace(fmt.Sprintf(`**%s - %s**

We are looking for a %s to join our team at %s.

**Location:** %s

**Responsibilities:**
%s

**Requirements:**
%s

**Schedule:**
• Hours: %s
• Days: %s

**Compensation:** %s

**How to Apply:** %s`,
		field(input, "job_title", "Job Position"),
		field(input, "store_name", "Local Store"),
		field(input, "job_title", "team member"),
		field(input, "store_name", "our store"),
		field(input, "location", "Please inquire"),
		field(input, "key_responsibilities", "Various store duties as assigned"),
		field(input, "skills_required", "Willingness to learn and work as part of a team"),
		field(input, "working_hours", "To be discussed"),
		field(input, "working_days", "To be discussed"),
		field(input, "salary", "Competitive salary"),
		field(input, "contact_info", "Apply in person"),
	))
}

func fallbackStoreSummary(input match.Record) string {
	return fmt.Sprintf("%s position available at %s",
		field(input, "job_title", "Job"),
		field(input, "store_name", "local store"),
	)
}
