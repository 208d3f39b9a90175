package writer

import (
	"context"
	"fmt"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
)

const emailPrompt = `You write concise, personable job-application emails on behalf of a candidate.

Target position: %s
Company: %s
Role summary: %s
Key skills sought: %s

Candidate evidence (facts and writing rules, each prefixed with its source):
%s

Full job offer:
%s

Write an application email for this offer. Constraints:
- 150 to 200 words, subject line included.
- Ground every claim in the candidate evidence above; invent nothing.
- Follow any writing rules present in the evidence (sections marked RULESET).
- Professional but warm tone, direct opening, one clear call to action.
- Write in the language of the job offer.
Return only the email text.`

type emailWriter struct {
	models llm.Invoker
}

func (w *emailWriter) ContentType() domain.ContentType { return domain.ContentEmail }

func (w *emailWriter) Generate(ctx context.Context, offer domain.JobOffer, analysis domain.JobAnalysis, docs []domain.RerankedDocument) (string, error) {
	out, err := w.models.Invoke(ctx, llm.RoleEmailWriter, buildPrompt(emailPrompt, offer, analysis, docs))
	if err != nil {
		return "", fmt.Errorf("writer: email: %w", err)
	}
	return out, nil
}
