// Package main implements the JobBooster ingestion command. It rebuilds the
// vector collection from the personal documents in the data directory, and
// can optionally stay up listening for re-ingestion triggers over NATS.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/jobbooster/jobbooster/engine/chunk"
	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/ingest"
	"github.com/jobbooster/jobbooster/engine/semantic"
	"github.com/jobbooster/jobbooster/pkg/ollama"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	dataDir := flag.String("data", envOr("DATA_DIR", "./data"), "directory holding the personal source documents")
	listen := flag.Bool("listen", false, "after the initial run, keep listening for NATS re-ingestion triggers")
	natsURL := flag.String("nats", envOr("NATS_URL", nats.DefaultURL), "NATS server URL (with -listen)")
	chunkSize := flag.Int("chunk-size", chunk.DefaultSize, "chunk size in characters")
	chunkOverlap := flag.Int("chunk-overlap", chunk.DefaultOverlap, "chunk overlap in characters")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*dataDir, *listen, *natsURL, *chunkSize, *chunkOverlap, logger); err != nil {
		logger.Error("ingest exited with error", "err", err)
		os.Exit(1)
	}
}

func run(dataDir string, listen bool, natsURL string, chunkSize, chunkOverlap int, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chunker, err := chunk.New(chunkSize, chunkOverlap)
	if err != nil {
		return err
	}

	vectorStore, err := semantic.New(
		envOr("QDRANT_URL", "localhost:6334"),
		envOr("QDRANT_COLLECTION", "user_info"),
		logger,
	)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	embedder := ollama.New(
		envOr("OLLAMA_URL", "http://localhost:11434"),
		envOr("EMBED_MODEL", ollama.DefaultEmbedModel),
		ollama.DefaultEmbedDims,
	)

	deps := ingest.Deps{
		Chunker:  chunker,
		Embedder: embedder,
		Store:    vectorStore,
		Logger:   logger,
	}
	loadSources := func() ([]domain.SourceDocument, error) { return readSources(dataDir) }

	sources, err := loadSources()
	if err != nil {
		return err
	}
	report, err := ingest.Run(ctx, deps, sources)
	if err != nil {
		return err
	}
	for source, n := range report.PerSource {
		logger.Info("ingested", "source", source, "chunks", n)
	}

	if !listen {
		return nil
	}

	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	sub, err := ingest.StartConsumer(nc, deps, loadSources)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	logger.Info("listening for re-ingestion triggers", "subject", ingest.TriggerSubject)
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}

// readSources loads every markdown and plain-text file in the data directory
// as a source document, tagged with its file name. Order is stable so chunk
// indices do not drift between runs over unchanged files.
func readSources(dir string) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".md", ".txt":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no .md or .txt documents in %s", dir)
	}

	sources := make([]domain.SourceDocument, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		format := domain.FormatText
		if strings.EqualFold(filepath.Ext(name), ".md") {
			format = domain.FormatMarkdown
		}
		sources = append(sources, domain.SourceDocument{
			Source: name,
			Text:   string(data),
			Format: format,
		})
	}
	return sources, nil
}
