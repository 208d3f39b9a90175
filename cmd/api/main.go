// Package main implements the JobBooster API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobbooster/jobbooster/engine/analyze"
	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
	"github.com/jobbooster/jobbooster/engine/pipeline"
	"github.com/jobbooster/jobbooster/engine/rerank"
	"github.com/jobbooster/jobbooster/engine/semantic"
	"github.com/jobbooster/jobbooster/engine/writer"
	"github.com/jobbooster/jobbooster/pkg/gemini"
	"github.com/jobbooster/jobbooster/pkg/metrics"
	"github.com/jobbooster/jobbooster/pkg/mid"
	"github.com/jobbooster/jobbooster/pkg/ollama"
	"github.com/jobbooster/jobbooster/pkg/openai"
)

// sourcePreviewLen bounds how much chunk text each response source carries.
const sourcePreviewLen = 300

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	QdrantURL     string
	Collection    string
	OllamaURL     string
	EmbedModel    string
	EmbedDims     int
	RerankURL     string
	RerankModel   string
	RerankAPIKey  string
	RerankTopK    int
	OpenAIBaseURL string
	OpenAIKey     string
	GeminiKey     string
	CORSOrigin    string
	ModelRPS      float64
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		QdrantURL:     envOr("QDRANT_URL", "localhost:6334"),
		Collection:    envOr("QDRANT_COLLECTION", "user_info"),
		OllamaURL:     envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:    envOr("EMBED_MODEL", ollama.DefaultEmbedModel),
		EmbedDims:     envIntOr("EMBED_DIMS", ollama.DefaultEmbedDims),
		RerankURL:     envOr("RERANK_URL", "http://localhost:8787"),
		RerankModel:   envOr("RERANK_MODEL", rerank.DefaultModel),
		RerankAPIKey:  os.Getenv("RERANK_API_KEY"),
		RerankTopK:    envIntOr("RERANK_TOP_K", rerank.DefaultTopK),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
		ModelRPS:      envFloatOr("MODEL_RPS", 2),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection, logger)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	// --- Model providers ---
	ollamaClient := ollama.New(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedDims)

	registry := llm.NewRegistry(llm.Options{RequestsPerSecond: cfg.ModelRPS, Burst: 2}, logger)
	registry.Register("openai", openai.New(cfg.OpenAIBaseURL, cfg.OpenAIKey))
	registry.Register("ollama", ollamaClient)
	if cfg.GeminiKey != "" {
		geminiClient, err := gemini.New(ctx, cfg.GeminiKey)
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}
		registry.Register("gemini", geminiClient)
	}

	// --- Build pipeline ---
	reranker := rerank.New(rerank.NewClient(cfg.RerankURL, cfg.RerankAPIKey, cfg.RerankModel), cfg.RerankTopK, logger)
	orch := pipeline.New(
		analyze.New(registry, logger),
		ollamaClient,
		vectorStore,
		reranker,
		writer.All(registry),
		pipeline.DefaultOptions(),
		logger,
	)

	// --- Metrics ---
	reg := metrics.New()

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/v1/generate", handleGenerate(orch, reg, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.Metrics(reg),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("jobbooster-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GenerateRequest is the JSON body for POST /api/v1/generate.
type GenerateRequest struct {
	JobOffer    string `json:"job_offer"`
	ContentType string `json:"content_type"`
}

// SourceView is one evidence chunk in the response, text truncated for
// display.
type SourceView struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float32 `json:"score"`
}

// GenerateResponse is the JSON response for POST /api/v1/generate.
type GenerateResponse struct {
	Content     string       `json:"content"`
	ContentType string       `json:"content_type"`
	Sources     []SourceView `json:"sources"`
	TraceID     string       `json:"trace_id,omitempty"`
}

func handleGenerate(orch *pipeline.Orchestrator, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ct := domain.ContentType(req.ContentType)
		reg.Counter(metrics.WithLabels("booster_generate_requests_total", "type", req.ContentType),
			"Generation requests by content type").Inc()
		start := time.Now()

		res, err := orch.Generate(r.Context(), domain.JobOffer{Text: req.JobOffer}, ct)
		reg.Histogram("booster_generate_duration_seconds", "End-to-end generation duration", nil).Since(start)
		if err != nil {
			reg.Counter(metrics.WithLabels("booster_generate_failures_total", "type", req.ContentType),
				"Failed generation runs by content type").Inc()
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("generate failed", "err", err, "state", res.State)
				writeError(w, status, "internal server error")
				return
			}
			writeError(w, status, err.Error())
			return
		}

		content := res.Content
		sources := make([]SourceView, len(content.Sources))
		for i, s := range content.Sources {
			sources[i] = SourceView{
				Source: s.Source,
				Text:   truncate(s.Text, sourcePreviewLen),
				Score:  s.RerankScore,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(GenerateResponse{
			Content:     content.Content,
			ContentType: string(content.ContentType),
			Sources:     sources,
			TraceID:     content.TraceID,
		})
	}
}

// statusFor maps pipeline failures onto HTTP statuses: caller mistakes are
// 400, a valid request with no grounding evidence is 404, the rest is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyOffer),
		errors.Is(err, domain.ErrOfferTooShort),
		errors.Is(err, domain.ErrInvalidContentType),
		errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrUnsupportedProvider):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoEvidence):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
