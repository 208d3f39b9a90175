// Package analyze condenses a raw job offer into a structured analysis via
// the analyzer model role.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
)

const analyzePrompt = `You are an expert job-offer analyst. Analyze the job offer below and respond with a single JSON object, no prose, no markdown fences, with exactly these fields:
{
  "summary": "2-3 sentence summary of the role and its context",
  "key_skills": ["the most important skills, max 10"],
  "position": "the job title",
  "company": "the company name, or empty string if not stated"
}

Job offer:
%s`

// Analyzer turns a validated job offer into a domain.JobAnalysis.
type Analyzer struct {
	models llm.Invoker
	logger *slog.Logger
}

// New creates an Analyzer.
func New(models llm.Invoker, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{models: models, logger: logger}
}

// Analyze validates the offer, invokes the analyzer role, and parses its
// strict-JSON reply. A reply that cannot be parsed, or that lacks a summary
// or position, fails with ErrAnalysisFailed.
func (a *Analyzer) Analyze(ctx context.Context, offer domain.JobOffer) (domain.JobAnalysis, error) {
	if err := domain.ValidateJobOffer(offer); err != nil {
		return domain.JobAnalysis{}, fmt.Errorf("analyze: %w", err)
	}

	raw, err := a.models.Invoke(ctx, llm.RoleAnalyzer, fmt.Sprintf(analyzePrompt, offer.Text))
	if err != nil {
		return domain.JobAnalysis{}, fmt.Errorf("analyze: %w", err)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		a.logger.Warn("analyzer reply rejected", "error", err, "reply_length", len(raw))
		return domain.JobAnalysis{}, fmt.Errorf("analyze: %w", err)
	}

	a.logger.Info("job offer analyzed",
		"position", analysis.Position,
		"company", analysis.Company,
		"skills", len(analysis.KeySkills))
	return analysis, nil
}

// parseAnalysis decodes the model reply, tolerating markdown code fences
// around the JSON object but nothing else.
func parseAnalysis(raw string) (domain.JobAnalysis, error) {
	body := stripFences(raw)

	var analysis domain.JobAnalysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		return domain.JobAnalysis{}, fmt.Errorf("parse reply: %v: %w", err, domain.ErrAnalysisFailed)
	}
	analysis.Summary = strings.TrimSpace(analysis.Summary)
	analysis.Position = strings.TrimSpace(analysis.Position)
	analysis.Company = strings.TrimSpace(analysis.Company)
	if analysis.Summary == "" {
		return domain.JobAnalysis{}, fmt.Errorf("reply missing summary: %w", domain.ErrAnalysisFailed)
	}
	if analysis.Position == "" {
		return domain.JobAnalysis{}, fmt.Errorf("reply missing position: %w", domain.ErrAnalysisFailed)
	}
	return analysis, nil
}

// stripFences removes a surrounding markdown code fence, then narrows to the
// outermost JSON object so stray prose around it does not break decoding.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}
