package analyze

import "github.com/jobbooster/jobbooster/engine/domain"

// fallbackQuery anchors retrieval when the analysis yields no usable terms.
const fallbackQuery = "job application"

// BuildSearchQuery derives the retrieval query for an analysis and target
// content type. The ruleset tokens pull the matching writing-rule chunks
// into the candidate set alongside the factual evidence.
func BuildSearchQuery(a domain.JobAnalysis, ct domain.ContentType) string {
	q := a.SearchQuery()
	if q == "" {
		q = fallbackQuery
	}
	q += " RULESET:GLOBAL"
	switch ct {
	case domain.ContentEmail:
		q += " RULESET:EMAIL"
	case domain.ContentLinkedIn:
		q += " RULESET:LINKEDIN"
	case domain.ContentLetter:
		q += " RULESET:LETTER"
	}
	return q
}
