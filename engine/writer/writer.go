// Package writer produces the final application content, one generator per
// output type. Each generator carries its own prompt template and its own
// model role, so different types can run on different backends.
package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
)

// Generator turns an offer, its analysis, and the reranked evidence into
// final text.
type Generator interface {
	Generate(ctx context.Context, offer domain.JobOffer, analysis domain.JobAnalysis, docs []domain.RerankedDocument) (string, error)
	ContentType() domain.ContentType
}

// ForType returns the generator for a content type.
func ForType(ct domain.ContentType, models llm.Invoker) (Generator, error) {
	switch ct {
	case domain.ContentEmail:
		return &emailWriter{models: models}, nil
	case domain.ContentLinkedIn:
		return &linkedinWriter{models: models}, nil
	case domain.ContentLetter:
		return &letterWriter{models: models}, nil
	default:
		return nil, domain.NewValidationError("content_type", string(ct), domain.ErrInvalidContentType)
	}
}

// All returns every generator keyed by content type.
func All(models llm.Invoker) map[domain.ContentType]Generator {
	out := make(map[domain.ContentType]Generator, len(domain.ValidContentTypes))
	for ct := range domain.ValidContentTypes {
		g, _ := ForType(ct, models)
		out[ct] = g
	}
	return out
}

// buildContext concatenates the evidence as "source: text" lines in rank
// order. This is the only channel through which personal facts reach the
// model.
func buildContext(docs []domain.RerankedDocument) string {
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(d.Source)
		b.WriteString(": ")
		b.WriteString(d.Text)
	}
	return b.String()
}

func buildPrompt(template string, offer domain.JobOffer, analysis domain.JobAnalysis, docs []domain.RerankedDocument) string {
	return fmt.Sprintf(template,
		analysis.Position,
		analysis.Company,
		analysis.Summary,
		strings.Join(analysis.KeySkills, ", "),
		buildContext(docs),
		offer.Text,
	)
}
