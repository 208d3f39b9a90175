package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultModel is the cross-encoder model the rerank endpoint serves.
const DefaultModel = "cross-encoder/ms-marco-MiniLM-L-6-v2"

// Client is a CrossEncoder backed by a rerank HTTP endpoint. The endpoint
// speaks the common rerank API shape: POST {model, query, documents} and a
// results list of {index, relevance_score}.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewClient creates a rerank client. apiKey may be empty for a local,
// unauthenticated endpoint.
func NewClient(baseURL, apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

type rerankReq struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResp struct {
	Results []struct {
		Index int     `json:"index"`
		Score float32 `json:"relevance_score"`
	} `json:"results"`
}

// Scores implements CrossEncoder. Results arrive ranked; they are mapped back
// to input positions so scores[i] always belongs to texts[i].
func (c *Client) Scores(ctx context.Context, query string, texts []string) ([]float32, error) {
	body, err := json.Marshal(rerankReq{Model: c.model, Query: query, Documents: texts})
	if err != nil {
		return nil, fmt.Errorf("rerank client: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rerank client: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank client: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank client: status %d", resp.StatusCode)
	}

	var result rerankResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("rerank client: decode: %w", err)
	}

	scores := make([]float32, len(texts))
	seen := 0
	for _, r := range result.Results {
		if r.Index >= 0 && r.Index < len(texts) {
			scores[r.Index] = r.Score
			seen++
		}
	}
	if seen != len(texts) {
		return nil, fmt.Errorf("rerank client: got %d scores for %d documents", seen, len(texts))
	}
	return scores, nil
}
