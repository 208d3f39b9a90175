package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/jobbooster/jobbooster/engine/domain"
)

type fakeProvider struct {
	lastCfg    ModelConfig
	lastPrompt string
	reply      string
	err        error
}

func (f *fakeProvider) Generate(_ context.Context, cfg ModelConfig, prompt string) (string, error) {
	f.lastCfg = cfg
	f.lastPrompt = prompt
	return f.reply, f.err
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func intPtr(n int) *int         { return &n }

func newTestRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	r := NewRegistry(opts, nil)
	r.Register("openai", &fakeProvider{reply: "ok"})
	return r
}

func TestResolve_DefaultsWhenUnconfigured(t *testing.T) {
	r := newTestRegistry(t, Options{})

	cfg, err := r.Resolve(RoleAnalyzer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DefaultConfig()
	if cfg != want {
		t.Fatalf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestResolve_StaticOverridesBeatDefaults(t *testing.T) {
	r := newTestRegistry(t, Options{Overrides: map[Role]Override{
		RoleEmailWriter: {Model: strPtr("gpt-4o"), Temperature: f64Ptr(0.2)},
	}})

	cfg, err := r.Resolve(RoleEmailWriter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "gpt-4o" || cfg.Temperature != 0.2 {
		t.Fatalf("static override not applied: %+v", cfg)
	}
	if cfg.MaxTokens != 2000 {
		t.Fatalf("untouched field must inherit default, got %d", cfg.MaxTokens)
	}
}

func TestResolve_EnvBeatsStatic(t *testing.T) {
	t.Setenv("AGENT_ANALYZER_MODEL", "gpt-4.1")
	t.Setenv("AGENT_ANALYZER_TEMPERATURE", "0")
	t.Setenv("AGENT_ANALYZER_MAX_TOKENS", "512")

	r := newTestRegistry(t, Options{Overrides: map[Role]Override{
		RoleAnalyzer: {Model: strPtr("gpt-4o"), Temperature: f64Ptr(0.9)},
	}})

	cfg, err := r.Resolve(RoleAnalyzer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "gpt-4.1" || cfg.Temperature != 0 || cfg.MaxTokens != 512 {
		t.Fatalf("env override not applied: %+v", cfg)
	}
}

func TestResolve_EnvScopedPerRole(t *testing.T) {
	t.Setenv("AGENT_LETTER_WRITER_MODEL", "gpt-4o")

	r := newTestRegistry(t, Options{})
	cfg, err := r.Resolve(RoleEmailWriter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Fatalf("letter override leaked into email role: %+v", cfg)
	}
}

func TestResolve_UnparseableEnvIgnored(t *testing.T) {
	t.Setenv("AGENT_ANALYZER_TEMPERATURE", "warm")
	t.Setenv("AGENT_ANALYZER_MAX_TOKENS", "lots")

	r := newTestRegistry(t, Options{})
	cfg, err := r.Resolve(RoleAnalyzer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Temperature != 0.7 || cfg.MaxTokens != 2000 {
		t.Fatalf("garbage env must fall back to lower layer: %+v", cfg)
	}
}

func TestResolve_ParameterBounds(t *testing.T) {
	cases := []struct {
		name     string
		override Override
	}{
		{"temperature too high", Override{Temperature: f64Ptr(2.5)}},
		{"temperature negative", Override{Temperature: f64Ptr(-0.1)}},
		{"top_p zero", Override{TopP: f64Ptr(0)}},
		{"top_p above one", Override{TopP: f64Ptr(1.1)}},
		{"max_tokens zero", Override{MaxTokens: intPtr(0)}},
		{"max_tokens huge", Override{MaxTokens: intPtr(1 << 20)}},
		{"empty model", Override{Model: strPtr("")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRegistry(t, Options{Overrides: map[Role]Override{RoleAnalyzer: tc.override}})
			_, err := r.Resolve(RoleAnalyzer)
			if !errors.Is(err, domain.ErrInvalidParameter) {
				t.Fatalf("got %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestResolve_UnknownProvider(t *testing.T) {
	r := newTestRegistry(t, Options{Overrides: map[Role]Override{
		RoleAnalyzer: {Provider: strPtr("mystery")},
	}})

	_, err := r.Resolve(RoleAnalyzer)
	if !errors.Is(err, domain.ErrUnsupportedProvider) {
		t.Fatalf("got %v, want ErrUnsupportedProvider", err)
	}
}

func TestInvoke_RoutesToResolvedProvider(t *testing.T) {
	ollama := &fakeProvider{reply: "from ollama"}
	r := NewRegistry(Options{Overrides: map[Role]Override{
		RoleLinkedInWriter: {Provider: strPtr("ollama"), Model: strPtr("qwen3:8b")},
	}}, nil)
	r.Register("openai", &fakeProvider{reply: "from openai"})
	r.Register("ollama", ollama)

	out, err := r.Invoke(context.Background(), RoleLinkedInWriter, "write a post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "from ollama" {
		t.Fatalf("got %q", out)
	}
	if ollama.lastCfg.Model != "qwen3:8b" || ollama.lastPrompt != "write a post" {
		t.Fatalf("provider received %+v / %q", ollama.lastCfg, ollama.lastPrompt)
	}
}

func TestInvoke_WrapsProviderError(t *testing.T) {
	boom := errors.New("backend down")
	r := NewRegistry(Options{}, nil)
	r.Register("openai", &fakeProvider{err: boom})

	_, err := r.Invoke(context.Background(), RoleAnalyzer, "p")
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped provider error", err)
	}
}
