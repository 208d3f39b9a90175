// Package ingest rebuilds the vector collection from the personal source
// documents: chunking, batched embedding, and storage. It runs on demand,
// never in the request path, and always replaces the collection wholesale.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jobbooster/jobbooster/engine/chunk"
	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/embed"
	"github.com/jobbooster/jobbooster/engine/semantic"
	"github.com/jobbooster/jobbooster/pkg/fn"
)

// EmbedBatchSize is the max chunks per embedding request.
const EmbedBatchSize = 100

// VectorWriter is the slice of the vector store ingestion needs.
type VectorWriter interface {
	EnsureCollection(ctx context.Context, dims int, recreate bool) error
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
}

// Deps holds the external dependencies of the ingestion pipeline.
type Deps struct {
	Chunker  *chunk.Chunker
	Embedder embed.Provider
	Store    VectorWriter
	Logger   *slog.Logger
}

// Report summarizes one ingestion run.
type Report struct {
	TotalChunks int            `json:"total_chunks"`
	PerSource   map[string]int `json:"per_source"`
	Duration    time.Duration  `json:"duration"`
}

type embeddedChunks struct {
	chunks     []domain.Chunk
	embeddings [][]float32
}

// chunkStage validates and chunks every source document.
func chunkStage(chunker *chunk.Chunker) fn.Stage[[]domain.SourceDocument, []domain.Chunk] {
	return func(_ context.Context, sources []domain.SourceDocument) fn.Result[[]domain.Chunk] {
		for _, src := range sources {
			if err := domain.ValidateSourceDocument(src); err != nil {
				return fn.Err[[]domain.Chunk](err)
			}
		}
		chunks := fn.FlatMap(sources, chunker.Split)
		if len(chunks) == 0 {
			return fn.Errf[[]domain.Chunk]("ingest: no chunks produced from %d sources", len(sources))
		}
		return fn.Ok(chunks)
	}
}

// embedStage embeds chunks in batches of EmbedBatchSize, preserving order.
func embedStage(embedder embed.Provider) fn.Stage[[]domain.Chunk, embeddedChunks] {
	return func(ctx context.Context, chunks []domain.Chunk) fn.Result[embeddedChunks] {
		embeddings := make([][]float32, 0, len(chunks))
		for _, batch := range fn.Chunk(chunks, EmbedBatchSize) {
			texts := fn.Map(batch, func(c domain.Chunk) string { return c.Text })
			vecs, err := embedder.Embed(ctx, texts)
			if err != nil {
				return fn.Err[embeddedChunks](fmt.Errorf("ingest: embed batch: %w", err))
			}
			embeddings = append(embeddings, vecs...)
		}
		return fn.Ok(embeddedChunks{chunks: chunks, embeddings: embeddings})
	}
}

// storeStage recreates the collection and upserts every embedded chunk.
// Point IDs are derived from source and chunk index, so re-ingesting the same
// documents lands on the same IDs.
func storeStage(store VectorWriter, dims int) fn.Stage[embeddedChunks, []domain.Chunk] {
	return func(ctx context.Context, ec embeddedChunks) fn.Result[[]domain.Chunk] {
		if err := store.EnsureCollection(ctx, dims, true); err != nil {
			return fn.Err[[]domain.Chunk](fmt.Errorf("ingest: ensure collection: %w", err))
		}

		records := make([]semantic.VectorRecord, len(ec.chunks))
		for i, c := range ec.chunks {
			payload := map[string]any{
				"text":        c.Text,
				"source":      c.Source,
				"chunk_index": c.Index,
			}
			if c.Ruleset != "" {
				payload["type"] = "ruleset"
				payload["ruleset"] = c.Ruleset
			}
			records[i] = semantic.VectorRecord{
				ID:        PointID(c),
				Embedding: ec.embeddings[i],
				Payload:   payload,
			}
		}
		if err := store.Upsert(ctx, records); err != nil {
			return fn.Err[[]domain.Chunk](fmt.Errorf("ingest: upsert: %w", err))
		}
		return fn.Ok(ec.chunks)
	}
}

// PointID derives the deterministic point UUID for a chunk.
func PointID(c domain.Chunk) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s-%d", c.Source, c.Index))).String()
}

// Run executes one full ingestion over the given sources. The collection is
// recreated, so partial results from a failed prior run never survive.
func Run(ctx context.Context, deps Deps, sources []domain.SourceDocument) (Report, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	log.Info("ingest: starting", "sources", len(sources))

	pipeline := fn.Then(
		fn.Then(
			fn.TracedStage("ingest.chunk", chunkStage(deps.Chunker)),
			fn.TracedStage("ingest.embed", embedStage(deps.Embedder)),
		),
		fn.TracedStage("ingest.store", storeStage(deps.Store, deps.Embedder.Dimension())),
	)

	chunks, err := pipeline(ctx, sources).Unwrap()
	if err != nil {
		log.Error("ingest: failed", "error", err)
		return Report{}, err
	}

	report := Report{
		TotalChunks: len(chunks),
		PerSource:   make(map[string]int),
		Duration:    time.Since(start),
	}
	for _, c := range chunks {
		report.PerSource[c.Source]++
	}
	log.Info("ingest: completed", "chunks", report.TotalChunks, "duration", report.Duration)
	return report, nil
}
