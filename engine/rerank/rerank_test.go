package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/jobbooster/jobbooster/engine/domain"
)

type fakeEncoder struct {
	scores []float32
	err    error
	calls  int
}

func (f *fakeEncoder) Scores(_ context.Context, _ string, texts []string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores[:len(texts)], nil
}

func docs(ids ...string) []domain.RetrievedDocument {
	out := make([]domain.RetrievedDocument, len(ids))
	for i, id := range ids {
		out[i] = domain.RetrievedDocument{ID: id, Text: "text " + id, Source: "cv.md"}
	}
	return out
}

func orderOf(reranked []domain.RerankedDocument) []string {
	out := make([]string, len(reranked))
	for i, d := range reranked {
		out[i] = d.ID
	}
	return out
}

func TestRerank_OrdersByScoreDescending(t *testing.T) {
	s := New(&fakeEncoder{scores: []float32{0.1, 0.9, 0.5}}, 5, nil)

	got, err := s.Rerank(context.Background(), "q", docs("a", "b", "c"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"b", "c", "a"}; !reflect.DeepEqual(orderOf(got), want) {
		t.Fatalf("order %v, want %v", orderOf(got), want)
	}
	if got[0].RerankScore != 0.9 {
		t.Fatalf("score not attached: %+v", got[0])
	}
	if got[0].Text != "text b" {
		t.Fatalf("retrieval fields lost: %+v", got[0])
	}
}

func TestRerank_TiesKeepRetrievalOrder(t *testing.T) {
	s := New(&fakeEncoder{scores: []float32{0.5, 0.5, 0.5}}, 5, nil)

	got, err := s.Rerank(context.Background(), "q", docs("a", "b", "c"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(orderOf(got), want) {
		t.Fatalf("tied scores reordered: %v", orderOf(got))
	}
}

func TestRerank_TruncatesToTopK(t *testing.T) {
	s := New(&fakeEncoder{scores: []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}}, 5, nil)

	got, err := s.Rerank(context.Background(), "q", docs("a", "b", "c", "d", "e", "f", "g"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("kept %d, want 5", len(got))
	}
	if got[0].ID != "g" || got[4].ID != "c" {
		t.Fatalf("wrong window: %v", orderOf(got))
	}
}

func TestRerank_Deterministic(t *testing.T) {
	enc := &fakeEncoder{scores: []float32{0.4, 0.4, 0.9, 0.4}}
	s := New(enc, 5, nil)
	in := docs("a", "b", "c", "d")

	first, err := s.Rerank(context.Background(), "q", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Rerank(context.Background(), "q", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(orderOf(first), orderOf(second)) {
		t.Fatalf("rerank not deterministic: %v vs %v", orderOf(first), orderOf(second))
	}
}

func TestRerank_EmptyInput(t *testing.T) {
	enc := &fakeEncoder{}
	s := New(enc, 5, nil)

	got, err := s.Rerank(context.Background(), "q", nil)
	if err != nil || got != nil {
		t.Fatalf("got (%v, %v)", got, err)
	}
	if enc.calls != 0 {
		t.Fatal("empty input must not hit the encoder")
	}
}

func TestRerank_EncoderErrorPropagates(t *testing.T) {
	boom := errors.New("encoder down")
	s := New(&fakeEncoder{err: boom}, 5, nil)

	_, err := s.Rerank(context.Background(), "q", docs("a"))
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestClient_MapsScoresToInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Query != "golang developer" || len(req.Documents) != 3 {
			t.Errorf("bad request: %+v", req)
		}
		// ranked order, not input order
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 2, "relevance_score": 0.95},
				{"index": 0, "relevance_score": 0.40},
				{"index": 1, "relevance_score": 0.10},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "")
	scores, err := c.Scores(context.Background(), "golang developer", []string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []float32{0.40, 0.10, 0.95}; !reflect.DeepEqual(scores, want) {
		t.Fatalf("scores %v, want %v", scores, want)
	}
}

func TestClient_IncompleteResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"index": 0, "relevance_score": 0.5}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "")
	if _, err := c.Scores(context.Background(), "q", []string{"x", "y"}); err == nil {
		t.Fatal("expected error on missing scores")
	}
}
