// Package rerank refines retrieval candidates with a cross-encoder pass.
package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jobbooster/jobbooster/engine/domain"
)

// DefaultTopK is how many documents survive reranking.
const DefaultTopK = 5

// CrossEncoder scores (query, text) pairs. Output index i is the score of
// texts[i].
type CrossEncoder interface {
	Scores(ctx context.Context, query string, texts []string) ([]float32, error)
}

// Service reranks retrieved documents against the search query.
type Service struct {
	encoder CrossEncoder
	topK    int
	logger  *slog.Logger
}

// New creates a Service. topK <= 0 falls back to DefaultTopK.
func New(encoder CrossEncoder, topK int, logger *slog.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{encoder: encoder, topK: topK, logger: logger}
}

// Rerank scores every candidate and returns the top K by cross-encoder score
// descending. Equal scores keep their original retrieval order, so a rerun
// over the same input yields the same output.
func (s *Service) Rerank(ctx context.Context, query string, docs []domain.RetrievedDocument) ([]domain.RerankedDocument, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	scores, err := s.encoder.Scores(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	if len(scores) != len(docs) {
		return nil, fmt.Errorf("rerank: got %d scores for %d documents", len(scores), len(docs))
	}

	reranked := make([]domain.RerankedDocument, len(docs))
	for i, d := range docs {
		reranked[i] = domain.RerankedDocument{RetrievedDocument: d, RerankScore: scores[i]}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankScore > reranked[j].RerankScore
	})
	if len(reranked) > s.topK {
		reranked = reranked[:s.topK]
	}

	s.logger.Debug("reranked documents", "candidates", len(docs), "kept", len(reranked))
	return reranked, nil
}
