package writer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/engine/llm"
)

type fakeInvoker struct {
	lastRole   llm.Role
	lastPrompt string
	reply      string
	err        error
}

func (f *fakeInvoker) Invoke(_ context.Context, role llm.Role, prompt string) (string, error) {
	f.lastRole = role
	f.lastPrompt = prompt
	return f.reply, f.err
}

var (
	testOffer    = domain.JobOffer{Text: "We need a Go developer for our Paris office."}
	testAnalysis = domain.JobAnalysis{
		Summary:   "Backend Go role.",
		KeySkills: []string{"Go", "Kubernetes"},
		Position:  "Go Developer",
		Company:   "Acme",
	}
	testDocs = []domain.RerankedDocument{
		{RetrievedDocument: domain.RetrievedDocument{Source: "cv.md", Text: "Five years of Go."}, RerankScore: 0.9},
		{RetrievedDocument: domain.RetrievedDocument{Source: "rules.md", Text: "[RULESET: GLOBAL] Sign as R.P."}, RerankScore: 0.7},
	}
)

func TestForType_RoutesRoles(t *testing.T) {
	cases := []struct {
		ct   domain.ContentType
		role llm.Role
	}{
		{domain.ContentEmail, llm.RoleEmailWriter},
		{domain.ContentLinkedIn, llm.RoleLinkedInWriter},
		{domain.ContentLetter, llm.RoleLetterWriter},
	}
	for _, tc := range cases {
		t.Run(string(tc.ct), func(t *testing.T) {
			inv := &fakeInvoker{reply: "content"}
			g, err := ForType(tc.ct, inv)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.ContentType() != tc.ct {
				t.Fatalf("ContentType() = %q", g.ContentType())
			}
			out, err := g.Generate(context.Background(), testOffer, testAnalysis, testDocs)
			if err != nil || out != "content" {
				t.Fatalf("got (%q, %v)", out, err)
			}
			if inv.lastRole != tc.role {
				t.Fatalf("invoked role %q, want %q", inv.lastRole, tc.role)
			}
		})
	}
}

func TestForType_RejectsUnknown(t *testing.T) {
	_, err := ForType("tweet", &fakeInvoker{})
	if !errors.Is(err, domain.ErrInvalidContentType) {
		t.Fatalf("got %v, want ErrInvalidContentType", err)
	}
}

func TestAll_CoversEveryContentType(t *testing.T) {
	gens := All(&fakeInvoker{})
	if len(gens) != len(domain.ValidContentTypes) {
		t.Fatalf("got %d generators", len(gens))
	}
	for ct, g := range gens {
		if g == nil || g.ContentType() != ct {
			t.Fatalf("bad generator for %q", ct)
		}
	}
}

func TestGenerate_PromptCarriesEvidenceInRankOrder(t *testing.T) {
	inv := &fakeInvoker{reply: "ok"}
	g, _ := ForType(domain.ContentEmail, inv)

	if _, err := g.Generate(context.Background(), testOffer, testAnalysis, testDocs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := inv.lastPrompt
	for _, want := range []string{
		"Go Developer", "Acme", "Go, Kubernetes",
		"cv.md: Five years of Go.",
		"rules.md: [RULESET: GLOBAL] Sign as R.P.",
		testOffer.Text,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Index(p, "cv.md:") > strings.Index(p, "rules.md:") {
		t.Error("evidence not in rank order")
	}
}

func TestGenerate_WrapsInvokerError(t *testing.T) {
	boom := errors.New("model down")
	g, _ := ForType(domain.ContentLetter, &fakeInvoker{err: boom})

	_, err := g.Generate(context.Background(), testOffer, testAnalysis, testDocs)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestBuildContext_Empty(t *testing.T) {
	if got := buildContext(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}
