package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
)

func TestEmbed_BatchOrderAndModel(t *testing.T) {
	var got embedReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embedResp{Embeddings: [][]float32{
			{0.1, 0.2, 0.3},
			{0.4, 0.5, 0.6},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-model", 3)
	vecs, err := c.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Model != "test-model" {
		t.Fatalf("model not forwarded: %q", got.Model)
	}
	if len(got.Input) != 2 || got.Input[0] != "first" {
		t.Fatalf("inputs not forwarded in order: %v", got.Input)
	}
	if len(vecs) != 2 || vecs[1][0] != 0.4 {
		t.Fatalf("embeddings misordered: %v", vecs)
	}
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResp{Embeddings: [][]float32{{0.1, 0.2}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-model", 3)
	_, err := c.Embed(context.Background(), []string{"text"})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResp{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-model", 3)
	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on count mismatch")
	}
}

func TestEmbed_EmptyBatchSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("empty batch must not reach the server")
	}))
	defer srv.Close()

	c := New(srv.URL, "test-model", 3)
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("got (%v, %v)", vecs, err)
	}
}

func TestGenerate_ForwardsOptions(t *testing.T) {
	var got generateReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResp{Response: "generated text"})
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0)
	out, err := c.Generate(context.Background(), llm.ModelConfig{
		Model: "qwen3:8b", Temperature: 0.4, MaxTokens: 1024, TopP: 0.9,
	}, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "generated text" {
		t.Fatalf("got %q", out)
	}
	if got.Model != "qwen3:8b" || got.Prompt != "hello" || got.Stream {
		t.Fatalf("request malformed: %+v", got)
	}
	if got.Options["temperature"] != 0.4 || got.Options["num_predict"] != float64(1024) {
		t.Fatalf("options not forwarded: %v", got.Options)
	}
}

func TestGenerate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0)
	if _, err := c.Generate(context.Background(), llm.ModelConfig{Model: "m"}, "p"); err == nil {
		t.Fatal("expected error on 500")
	}
}
