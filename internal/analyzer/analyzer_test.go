package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"tracehound/internal/chunker"
	"tracehound/internal/filter"
)

// fakeCompleter implements Completer and records every request.
type fakeCompleter struct {
	mu       sync.Mutex
	requests []Request
	respond  func(req Request) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(req)
	}
	return "ok", nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func makeChunks(texts ...string) []chunker.Chunk {
	chunks := make([]chunker.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = chunker.Chunk{
			Index: i,
			Lines: []filter.Line{{Index: i, Text: text}},
		}
	}
	return chunks
}

func testConfig() Config {
	cfg := DefaultConfig("test-key")
	return cfg
}

func TestAnalyzeChunks_NoChunks(t *testing.T) {
	fake := &fakeCompleter{}
	out, err := AnalyzeChunks(context.Background(), fake, nil, []string{"freeswitch"}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d analyses, want 0", len(out))
	}
	if fake.callCount() != 0 {
		t.Errorf("completer called %d times, want 0", fake.callCount())
	}
}

func TestAnalyzeChunks_OrderPreserved(t *testing.T) {
	chunks := makeChunks("alpha-chunk", "beta-chunk", "gamma-chunk", "delta-chunk")
	fake := &fakeCompleter{
		respond: func(req Request) (string, error) {
			// echo back which chunk the prompt carried
			for _, marker := range []string{"alpha-chunk", "beta-chunk", "gamma-chunk", "delta-chunk"} {
				if strings.Contains(req.Prompt, marker) {
					return "analysis of " + marker, nil
				}
			}
			return "", errors.New("unknown chunk")
		},
	}

	cfg := testConfig()
	cfg.Concurrency = 4
	out, err := AnalyzeChunks(context.Background(), fake, chunks, []string{"freeswitch"}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("got %d analyses, want 4", len(out))
	}
	for i, marker := range []string{"alpha-chunk", "beta-chunk", "gamma-chunk", "delta-chunk"} {
		if out[i].Index != i {
			t.Errorf("analysis %d: got index %d", i, out[i].Index)
		}
		if out[i].Text != "analysis of "+marker {
			t.Errorf("analysis %d: got %q", i, out[i].Text)
		}
	}
}

func TestAnalyzeChunks_PromptContainsServicesAndChunk(t *testing.T) {
	fake := &fakeCompleter{}
	chunks := makeChunks("freeswitch profile rescan requested")
	_, err := AnalyzeChunks(context.Background(), fake, chunks, []string{"freeswitch", "tai6-manager"}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := fake.requests[0].Prompt
	if !strings.Contains(prompt, "freeswitch, tai6-manager") {
		t.Error("prompt should list the target services")
	}
	if !strings.Contains(prompt, "freeswitch profile rescan requested") {
		t.Error("prompt should embed the chunk text")
	}
	if fake.requests[0].OutputSchema != nil {
		t.Error("pass-1 requests should be free-text, not structured")
	}
}

func TestAnalyzeChunks_FailureNamesChunk(t *testing.T) {
	calls := 0
	fake := &fakeCompleter{
		respond: func(Request) (string, error) {
			calls++
			if calls == 2 {
				return "", errors.New("rate limited")
			}
			return "fine", nil
		},
	}

	_, err := AnalyzeChunks(context.Background(), fake, makeChunks("one", "two", "three"), []string{"svc"}, testConfig())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "pass-1 chunk 2") {
		t.Errorf("error should name the failed chunk, got %q", err.Error())
	}
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatal("error should be a ServiceError")
	}
	if svcErr.Unwrap() == nil {
		t.Error("ServiceError should wrap the underlying error")
	}
}

func TestAnalyzeChunks_TemplateOverride(t *testing.T) {
	fake := &fakeCompleter{}
	cfg := testConfig()
	cfg.Pass1Template = "services={target_services} log={log_text}"

	_, err := AnalyzeChunks(context.Background(), fake, makeChunks("boot complete"), []string{"svc"}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := fake.requests[0].Prompt, "services=svc log=boot complete"; got != want {
		t.Errorf("override prompt:\ngot  %q\nwant %q", got, want)
	}
}

func TestSynthesize_EmptyEvidence(t *testing.T) {
	fake := &fakeCompleter{}
	syn, err := Synthesize(context.Background(), fake, nil, []string{"freeswitch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.callCount() != 0 {
		t.Errorf("completer called %d times for empty evidence, want 0", fake.callCount())
	}
	if !strings.Contains(syn.Summary, "No matching evidence") {
		t.Errorf("summary should state no matching evidence, got %q", syn.Summary)
	}
}

func TestSynthesize_EvidenceOrderingAndTags(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(Request) (string, error) {
			return `{"report":"full report","summary":"short summary","impactedServices":["freeswitch"]}`, nil
		},
	}
	analyses := []ChunkAnalysis{
		{Index: 0, Text: "first finding"},
		{Index: 1, Text: "second finding"},
		{Index: 2, Text: "third finding"},
	}

	syn, err := Synthesize(context.Background(), fake, analyses, []string{"freeswitch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := fake.requests[0].Prompt
	p1 := strings.Index(prompt, "Chunk 1 analysis:\nfirst finding")
	p2 := strings.Index(prompt, "Chunk 2 analysis:\nsecond finding")
	p3 := strings.Index(prompt, "Chunk 3 analysis:\nthird finding")
	if p1 < 0 || p2 < 0 || p3 < 0 {
		t.Fatal("synthesis prompt should tag each chunk analysis")
	}
	if !(p1 < p2 && p2 < p3) {
		t.Error("chunk analyses out of order in synthesis prompt")
	}
	if fake.requests[0].OutputSchema == nil {
		t.Error("synthesis should request structured output")
	}

	if syn.Report != "full report" || syn.Summary != "short summary" {
		t.Errorf("parsed synthesis: got %+v", syn)
	}
	if len(syn.ImpactedServices) != 1 || syn.ImpactedServices[0] != "freeswitch" {
		t.Errorf("impacted services: got %v", syn.ImpactedServices)
	}
}

func TestSynthesize_ServiceFailureIsFatal(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(Request) (string, error) {
			return "", errors.New("network timeout")
		},
	}
	_, err := Synthesize(context.Background(), fake, []ChunkAnalysis{{Index: 0, Text: "x"}}, []string{"svc"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "pass-2 synthesis") {
		t.Errorf("error should name the synthesis stage, got %q", err.Error())
	}
}

func TestSynthesize_MalformedStructuredOutput(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(Request) (string, error) {
			return "not json at all", nil
		},
	}
	_, err := Synthesize(context.Background(), fake, []ChunkAnalysis{{Index: 0, Text: "x"}}, []string{"svc"})
	if err == nil {
		t.Fatal("expected error for malformed structured output")
	}
	if !strings.Contains(err.Error(), "pass-2 synthesis") {
		t.Errorf("error should name the synthesis stage, got %q", err.Error())
	}
}

func TestResolveAPIKey_OverrideWins(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	key, err := ResolveAPIKey("explicit-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "explicit-key" {
		t.Errorf("got %q, want explicit-key", key)
	}
}

func TestResolveAPIKey_EnvFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	key, err := ResolveAPIKey("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "env-key" {
		t.Errorf("got %q, want env-key", key)
	}
}

func TestResolveAPIKey_Missing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := ResolveAPIKey("")
	if !errors.Is(err, ErrCredentialMissing) {
		t.Errorf("got %v, want ErrCredentialMissing", err)
	}
}

func TestGenerateSchema(t *testing.T) {
	s := generateSchema(&Synthesis{})
	if s == nil {
		t.Fatal("schema should not be nil")
	}
	props, ok := s["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema missing properties: %v", s)
	}
	for _, field := range []string{"report", "summary", "impactedServices"} {
		if _, ok := props[field]; !ok {
			t.Errorf("schema missing %q property", field)
		}
	}
}

func TestServiceError_Message(t *testing.T) {
	err := &ServiceError{Stage: "pass-1 chunk 7", Err: fmt.Errorf("boom")}
	want := "pass-1 chunk 7: completion request failed: boom"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
