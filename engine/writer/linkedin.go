package writer

import (
	"context"
	"fmt"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
)

const linkedinPrompt = `You write short LinkedIn outreach messages on behalf of a candidate contacting a recruiter or hiring manager.

Target position: %s
Company: %s
Role summary: %s
Key skills sought: %s

Candidate evidence (facts and writing rules, each prefixed with its source):
%s

Full job offer:
%s

Write a LinkedIn message about this offer. Constraints:
- Under 100 words, no subject line, no formal letter structure.
- Ground every claim in the candidate evidence above; invent nothing.
- Follow any writing rules present in the evidence (sections marked RULESET).
- Conversational and specific, mention one concrete point of fit, end with a light ask.
- Write in the language of the job offer.
Return only the message text.`

type linkedinWriter struct {
	models llm.Invoker
}

func (w *linkedinWriter) ContentType() domain.ContentType { return domain.ContentLinkedIn }

func (w *linkedinWriter) Generate(ctx context.Context, offer domain.JobOffer, analysis domain.JobAnalysis, docs []domain.RerankedDocument) (string, error) {
	out, err := w.models.Invoke(ctx, llm.RoleLinkedInWriter, buildPrompt(linkedinPrompt, offer, analysis, docs))
	if err != nil {
		return "", fmt.Errorf("writer: linkedin: %w", err)
	}
	return out, nil
}
