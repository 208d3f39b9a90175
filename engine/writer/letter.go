package writer

import (
	"context"
	"fmt"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
)

const letterPrompt = `You write structured cover letters on behalf of a candidate.

Target position: %s
Company: %s
Role summary: %s
Key skills sought: %s

Candidate evidence (facts and writing rules, each prefixed with its source):
%s

Full job offer:
%s

Write a cover letter for this offer. Constraints:
- 300 to 400 words with a clear opening, two body paragraphs, and a closing.
- Ground every claim in the candidate evidence above; invent nothing.
- Follow any writing rules present in the evidence (sections marked RULESET).
- Connect the candidate's strongest evidence to the role's stated needs.
- Write in the language of the job offer.
Return only the letter text.`

type letterWriter struct {
	models llm.Invoker
}

func (w *letterWriter) ContentType() domain.ContentType { return domain.ContentLetter }

func (w *letterWriter) Generate(ctx context.Context, offer domain.JobOffer, analysis domain.JobAnalysis, docs []domain.RerankedDocument) (string, error) {
	out, err := w.models.Invoke(ctx, llm.RoleLetterWriter, buildPrompt(letterPrompt, offer, analysis, docs))
	if err != nil {
		return "", fmt.Errorf("writer: letter: %w", err)
	}
	return out, nil
}
