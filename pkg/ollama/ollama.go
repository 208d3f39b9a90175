// Package ollama provides Ollama-backed embedding and text generation over
// its local HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
)

// DefaultEmbedModel is the multilingual embedding model the pipeline is
// provisioned with. Its vectors are 768-wide.
const (
	DefaultEmbedModel = "jeffh/intfloat-multilingual-e5-base:f16"
	DefaultEmbedDims  = 768
)

// Client talks to a single Ollama instance.
type Client struct {
	baseURL    string
	embedModel string
	dims       int
	client     *http.Client
}

// New creates a client for the Ollama instance at baseURL. dims is the
// expected embedding width; responses of any other width are rejected.
func New(baseURL, embedModel string, dims int) *Client {
	if embedModel == "" {
		embedModel = DefaultEmbedModel
	}
	if dims <= 0 {
		dims = DefaultEmbedDims
	}
	return &Client{
		baseURL:    baseURL,
		embedModel: embedModel,
		dims:       dims,
		client:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Dimension returns the embedding width this client enforces.
func (c *Client) Dimension() int { return c.dims }

type embedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResp struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed embeds a batch of texts via /api/embed. Output order matches input
// order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, span := otel.Tracer("pkg/ollama").Start(ctx, "ollama.embed")
	defer span.End()
	span.SetAttributes(attribute.Int("batch_size", len(texts)))

	var result embedResp
	if err := c.post(ctx, "/api/embed", embedReq{Model: c.embedModel, Input: texts}, &result); err != nil {
		return nil, fmt.Errorf("ollama: embed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: embed: got %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}
	for i, vec := range result.Embeddings {
		if len(vec) != c.dims {
			return nil, fmt.Errorf("ollama: embed [%d]: %w", i,
				domain.NewValidationError("dimension", strconv.Itoa(len(vec)), domain.ErrDimensionMismatch))
		}
	}
	return result.Embeddings, nil
}

// EmbedQuery embeds a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type generateReq struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResp struct {
	Response string `json:"response"`
}

// Generate runs a prompt through /api/generate without streaming.
func (c *Client) Generate(ctx context.Context, cfg llm.ModelConfig, prompt string) (string, error) {
	ctx, span := otel.Tracer("pkg/ollama").Start(ctx, "ollama.generate")
	defer span.End()
	span.SetAttributes(attribute.String("model", cfg.Model))

	req := generateReq{
		Model:  cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": cfg.Temperature,
			"top_p":       cfg.TopP,
			"num_predict": cfg.MaxTokens,
		},
	}
	var result generateResp
	if err := c.post(ctx, "/api/generate", req, &result); err != nil {
		return "", fmt.Errorf("ollama: generate: %w", err)
	}
	return result.Response, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
