// Package pipeline orchestrates one generation run: analyze the offer, embed
// the derived query, search the vector store, rerank the hits, and hand the
// evidence to the matching content generator. The run is a forward-only state
// machine; any stage error ends it in the Failed state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jobbooster/jobbooster/engine/analyze"
	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/writer"
)

// Analyzer condenses the offer into a structured analysis.
type Analyzer interface {
	Analyze(ctx context.Context, offer domain.JobOffer) (domain.JobAnalysis, error)
}

// QueryEmbedder embeds the search query.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher performs thresholded similarity search.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, limit int, scoreThreshold float32) ([]domain.RetrievedDocument, error)
}

// Reranker re-scores and trims the retrieved candidates.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []domain.RetrievedDocument) ([]domain.RerankedDocument, error)
}

// Options tunes retrieval for every run.
type Options struct {
	SearchLimit    int
	ScoreThreshold float32
}

// DefaultOptions retrieves a wider candidate set than the reranker keeps, so
// reranking has room to reorder.
func DefaultOptions() Options {
	return Options{SearchLimit: 10, ScoreThreshold: 0.3}
}

// Orchestrator drives the generation state machine.
type Orchestrator struct {
	analyzer Analyzer
	embedder QueryEmbedder
	searcher Searcher
	reranker Reranker
	writers  map[domain.ContentType]writer.Generator
	opts     Options
	logger   *slog.Logger
}

// New creates an Orchestrator.
func New(analyzer Analyzer, embedder QueryEmbedder, searcher Searcher, reranker Reranker,
	writers map[domain.ContentType]writer.Generator, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.SearchLimit <= 0 {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		analyzer: analyzer,
		embedder: embedder,
		searcher: searcher,
		reranker: reranker,
		writers:  writers,
		opts:     opts,
		logger:   logger,
	}
}

// Result is the outcome of one run: the state it ended in and, when it
// completed, the generated content.
type Result struct {
	State   State
	Content *domain.GeneratedContent
}

// Generate runs the full state machine for one request. On failure the
// returned Result carries StateFailed and the error identifies the failing
// stage via the domain sentinel it wraps.
func (o *Orchestrator) Generate(ctx context.Context, offer domain.JobOffer, ct domain.ContentType) (*Result, error) {
	ctx, span := otel.Tracer("engine/pipeline").Start(ctx, "pipeline.generate",
		trace.WithAttributes(attribute.String("content_type", string(ct))))
	defer span.End()

	state := StateStarted
	fail := func(err error) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("pipeline: run failed", "state", state, "error", err)
		return &Result{State: StateFailed}, err
	}

	gen, ok := o.writers[ct]
	if !ok {
		return fail(fmt.Errorf("pipeline: %w",
			domain.NewValidationError("content_type", string(ct), domain.ErrInvalidContentType)))
	}

	// Started -> Analyzed
	analysis, err := o.analyzer.Analyze(ctx, offer)
	if err != nil {
		return fail(err)
	}
	state = StateAnalyzed
	o.logger.Info("pipeline: analyzed", "position", analysis.Position, "company", analysis.Company)

	// Analyzed -> Retrieved
	query := analyze.BuildSearchQuery(analysis, ct)
	span.SetAttributes(attribute.Int("query_length", len(query)))

	embedding, err := o.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return fail(fmt.Errorf("pipeline: embed query: %w", err))
	}
	retrieved, err := o.searcher.Search(ctx, embedding, o.opts.SearchLimit, o.opts.ScoreThreshold)
	if err != nil {
		return fail(fmt.Errorf("pipeline: search: %w", err))
	}
	if len(retrieved) == 0 {
		return fail(fmt.Errorf("pipeline: %w", domain.ErrNoEvidence))
	}
	state = StateRetrieved
	o.logger.Info("pipeline: retrieved", "documents", len(retrieved))

	// Retrieved -> Reranked
	reranked, err := o.reranker.Rerank(ctx, query, retrieved)
	if err != nil {
		return fail(err)
	}
	if len(reranked) == 0 {
		return fail(fmt.Errorf("pipeline: %w", domain.ErrNoEvidence))
	}
	state = StateReranked
	o.logger.Info("pipeline: reranked", "documents", len(reranked))

	// Reranked -> Generated
	content, err := gen.Generate(ctx, offer, analysis, reranked)
	if err != nil {
		return fail(err)
	}
	state = StateGenerated

	// Generated -> Completed
	result := &domain.GeneratedContent{
		Content:     content,
		ContentType: ct,
		Sources:     reranked,
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		result.TraceID = sc.TraceID().String()
	}
	state = StateCompleted
	o.logger.Info("pipeline: completed", "content_type", ct, "content_length", len(content), "sources", len(reranked))
	return &Result{State: state, Content: result}, nil
}
