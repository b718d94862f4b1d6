package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/draftforge/api/internal/model"
	"github.com/draftforge/api/internal/provider"
)

const structuredContent = `TITLE: Test Article
META: A short meta description.
BODY:
# Test Article

In this article we cover testing in enough depth to be useful.

## Details

More text here with a few sentences. Testing pays off.

In conclusion, write the tests.`

// stubAdapter replays canned responses in call order, repeating the last one.
type stubAdapter struct {
	name    string
	replies []stubReply
	calls   int
	prompts []provider.Prompt
}

type stubReply struct {
	content string
	err     error
}

func (s *stubAdapter) Name() string     { return s.name }
func (s *stubAdapter) Configured() bool { return true }

func (s *stubAdapter) Invoke(ctx context.Context, prompt provider.Prompt, opts provider.Options) (*provider.Completion, error) {
	s.prompts = append(s.prompts, prompt)
	idx := s.calls
	s.calls++
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	r := s.replies[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &provider.Completion{
		Content:          r.content,
		PromptTokens:     10,
		CompletionTokens: 20,
		CostUSD:          0.001,
	}, nil
}

func providerError(kind model.ErrorKind, msg string) error {
	return &provider.Error{Kind: kind, Message: msg}
}

func newTestOrchestrator(adapters ...provider.Adapter) *Orchestrator {
	return New(provider.NewRegistry(adapters...), provider.NewHealthTracker(20))
}

func testRequest() *model.GenerationRequest {
	return &model.GenerationRequest{
		Title:    "Test Article",
		Keywords: []string{"testing"},
	}
}

func TestGenerateFirstTrySuccess(t *testing.T) {
	a := &stubAdapter{name: "openai", replies: []stubReply{{content: structuredContent}}}
	orch := newTestOrchestrator(a)

	result := orch.Generate(context.Background(), testRequest(), "")

	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(result.Attempts))
	}
	if result.FallbackUsed {
		t.Error("fallbackUsed should be false on first-try success")
	}
	if result.FinalProvider != "openai" {
		t.Errorf("finalProvider = %q, want openai", result.FinalProvider)
	}
	if result.Parsed == nil || result.Parsed.Title != "Test Article" {
		t.Errorf("parsed title = %+v, want Test Article", result.Parsed)
	}
	if result.Metrics == nil {
		t.Error("expected metrics on success")
	}
	if result.TotalTokens != 30 {
		t.Errorf("totalTokens = %d, want 30", result.TotalTokens)
	}
}

func TestGenerateProviderFallback(t *testing.T) {
	bad := &stubAdapter{name: "openai", replies: []stubReply{{err: providerError(model.ErrorKindAuth, "bad key")}}}
	good := &stubAdapter{name: "anthropic", replies: []stubReply{{content: structuredContent}}}
	orch := newTestOrchestrator(bad, good)

	result := orch.Generate(context.Background(), testRequest(), "")

	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(result.Attempts))
	}
	if result.Attempts[0].ErrorKind != model.ErrorKindAuth {
		t.Errorf("first attempt errorKind = %s, want auth", result.Attempts[0].ErrorKind)
	}
	if result.FinalProvider != "anthropic" {
		t.Errorf("finalProvider = %q, want anthropic", result.FinalProvider)
	}
	// Provider fallback within the same schema is not a schema fallback.
	if result.FallbackUsed {
		t.Error("fallbackUsed should be false when a secondary provider succeeds")
	}
}

func TestGenerateSchemaFallback(t *testing.T) {
	a := &stubAdapter{name: "openai", replies: []stubReply{
		{err: providerError(model.ErrorKindContentPolicy, "blocked")},
		{content: structuredContent},
	}}
	orch := newTestOrchestrator(a)

	result := orch.Generate(context.Background(), testRequest(), "")

	if !result.Success {
		t.Fatalf("expected success via schema fallback, got: %s", result.Error)
	}
	if !result.FallbackUsed {
		t.Error("expected fallbackUsed")
	}
	if !strings.Contains(result.OriginalError, "all providers exhausted") {
		t.Errorf("originalError = %q, want provider exhaustion context", result.OriginalError)
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(result.Attempts))
	}
	if a.calls != 2 {
		t.Fatalf("adapter calls = %d, want 2", a.calls)
	}
	// Second call carries the legacy free-text prompt, not the topic schema.
	if strings.Contains(a.prompts[1].User, "Topic: ") {
		t.Error("fallback pass still used the topic-based prompt")
	}
	if !strings.Contains(a.prompts[1].User, "Write a") {
		t.Errorf("fallback prompt = %q, want legacy free-text shape", a.prompts[1].User)
	}
}

func TestGenerateBothPassesFail(t *testing.T) {
	a := &stubAdapter{name: "openai", replies: []stubReply{
		{err: providerError(model.ErrorKindRateLimit, "quota")},
	}}
	orch := newTestOrchestrator(a)

	result := orch.Generate(context.Background(), testRequest(), "")

	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "schema fallback also failed") {
		t.Errorf("error = %q, want combined failure message", result.Error)
	}
	if len(result.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2 (one per pass)", len(result.Attempts))
	}
	if result.Parsed != nil {
		t.Error("parsed content should be nil on failure")
	}
	if result.Metrics != nil {
		t.Error("metrics should be nil on failure")
	}
}

func TestGenerateHeuristicParseOnMalformedOutput(t *testing.T) {
	a := &stubAdapter{name: "openai", replies: []stubReply{
		{content: "My Great Title\n\nBody text that ignored the output contract entirely."},
	}}
	orch := newTestOrchestrator(a)

	result := orch.Generate(context.Background(), testRequest(), "")

	if !result.Success {
		t.Fatalf("malformed output must still succeed, got: %s", result.Error)
	}
	if result.Parsed.Title != "My Great Title" {
		t.Errorf("parsed title = %q, want first line", result.Parsed.Title)
	}
	if result.Parsed.MetaDescription == "" {
		t.Error("expected meta description clipped from body")
	}
}

func TestGeneratePreferredProviderPinnedFirst(t *testing.T) {
	a := &stubAdapter{name: "openai", replies: []stubReply{{err: providerError(model.ErrorKindTimeout, "slow")}}}
	b := &stubAdapter{name: "anthropic", replies: []stubReply{{content: structuredContent}}}
	orch := newTestOrchestrator(a, b)

	result := orch.Generate(context.Background(), testRequest(), "anthropic")

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Error)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1 (pinned provider first)", len(result.Attempts))
	}
	if result.Attempts[0].Provider != "anthropic" {
		t.Errorf("first attempt = %q, want pinned anthropic", result.Attempts[0].Provider)
	}
	if a.calls != 0 {
		t.Errorf("openai called %d times, want 0", a.calls)
	}
}

func TestGenerateNoProviders(t *testing.T) {
	orch := newTestOrchestrator()

	result := orch.Generate(context.Background(), testRequest(), "")

	if result.Success {
		t.Fatal("expected failure with empty registry")
	}
	if result.Error != "no providers configured" {
		t.Errorf("error = %q", result.Error)
	}
}
