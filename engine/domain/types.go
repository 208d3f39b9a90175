// Package domain defines core domain types, constants, and validation for the
// JobBooster engine pipeline. It acts as the validation gate at pipeline entry points.
package domain

import "strings"

// ContentType selects which generator produces the final artifact.
type ContentType string

const (
	ContentEmail    ContentType = "email"
	ContentLinkedIn ContentType = "linkedin"
	ContentLetter   ContentType = "letter"
)

// ValidContentTypes is the set of recognised content types.
var ValidContentTypes = map[ContentType]bool{
	ContentEmail: true, ContentLinkedIn: true, ContentLetter: true,
}

// Format hints the chunker at the structure of a source document.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// SourceDocument is one raw personal document handed to ingestion.
// Immutable; never mutated after chunking.
type SourceDocument struct {
	Source string `json:"source"` // origin tag, e.g. file name
	Text   string `json:"text"`
	Format Format `json:"format"`
}

// Chunk is a bounded contiguous slice of a source document's text, the unit
// of embedding and retrieval. Index is monotonically increasing per source.
type Chunk struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	Index   int    `json:"chunk_index"`
	Ruleset string `json:"ruleset,omitempty"` // set for writing-rule sections, kept whole
}

// JobOffer is the raw offer text submitted by the user. Constructed fresh per
// request and never persisted.
type JobOffer struct {
	Text string `json:"text"`
}

// JobAnalysis is the structured condensation of a JobOffer produced by the
// analyzer role. Derived once per request.
type JobAnalysis struct {
	Summary   string   `json:"summary"`
	KeySkills []string `json:"key_skills"`
	Position  string   `json:"position"`
	Company   string   `json:"company,omitempty"`
}

// maxQuerySkills bounds how many skills feed the search query.
const maxQuerySkills = 5

// SearchQuery builds the deterministic semantic-search query for this
// analysis: position, up to five key skills, and the company when present,
// space-joined.
func (a JobAnalysis) SearchQuery() string {
	parts := make([]string, 0, 2+maxQuerySkills)
	parts = append(parts, a.Position)
	skills := a.KeySkills
	if len(skills) > maxQuerySkills {
		skills = skills[:maxQuerySkills]
	}
	parts = append(parts, skills...)
	if a.Company != "" {
		parts = append(parts, a.Company)
	}
	joined := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			joined = append(joined, p)
		}
	}
	return strings.Join(joined, " ")
}

// RetrievedDocument is a single vector-store search hit. Score is the raw
// cosine similarity, not yet reranked.
type RetrievedDocument struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Score  float32 `json:"score"`
	Source string  `json:"source"`
}

// RerankedDocument is a RetrievedDocument after the cross-encoder pass.
// Ordering among reranked documents is by RerankScore descending.
type RerankedDocument struct {
	RetrievedDocument
	RerankScore float32 `json:"rerank_score"`
}

// GeneratedContent is the final artifact returned to the caller, including
// the evidence it was grounded on.
type GeneratedContent struct {
	Content     string             `json:"content"`
	ContentType ContentType        `json:"content_type"`
	Sources     []RerankedDocument `json:"sources"`
	TraceID     string             `json:"trace_id,omitempty"`
}
