package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jobbooster/jobbooster/engine/llm"
)

func TestGenerate_RequestShape(t *testing.T) {
	var got chatReq
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Dear hiring team,"}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	out, err := c.Generate(context.Background(), llm.ModelConfig{
		Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 2000, TopP: 1.0,
	}, "write an email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Dear hiring team," {
		t.Fatalf("got %q", out)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("auth header %q", auth)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens != 2000 || got.TopP != 1.0 {
		t.Fatalf("request malformed: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "write an email" {
		t.Fatalf("messages malformed: %+v", got.Messages)
	}
}

func TestGenerate_APIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	_, err := c.Generate(context.Background(), llm.ModelConfig{Model: "m"}, "p")
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("got %v, want API error message surfaced", err)
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	if _, err := c.Generate(context.Background(), llm.ModelConfig{Model: "m"}, "p"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
