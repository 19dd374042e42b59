package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmaharana/docchat/internal/config"
	"github.com/dmaharana/docchat/internal/models"
	"github.com/dmaharana/docchat/internal/vectorstore"
)

// wordEmbedder hashes words into a bag-of-words vector, a
// deterministic stand-in for the embedding capability.
type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	const dim = 256
	vec := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		word = strings.TrimSuffix(word, "s")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%dim]++
	}
	return vec, nil
}

type fakeGenerator struct {
	output  string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.output, g.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		RAG: config.RAGConfig{
			IndexDir:         t.TempDir(),
			Collection:       "test",
			ChunkSize:        50,
			ChunkOverlap:     10,
			TopK:             5,
			MaxContextLength: 6000,
			MaxFileSizeMB:    10,
		},
	}
}

func newTestRAG(t *testing.T, gen Generator) *RAG {
	t.Helper()
	cfg := testConfig(t)
	store := vectorstore.NewManager(cfg.RAG.IndexDir, cfg.RAG.Collection)
	r, err := New(context.Background(), cfg, store, wordEmbedder{}, gen)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func writePolicyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.txt")
	text := "Refunds are processed within 14 days. Contact support for exceptions."
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAskWithoutCorpus(t *testing.T) {
	gen := &fakeGenerator{output: "should never be called"}
	r := newTestRAG(t, gen)

	ans := r.Ask(context.Background(), "what is the refund policy?")
	if ans.Answer != models.NoInformationAnswer {
		t.Fatalf("answer = %q, want no-information sentinel", ans.Answer)
	}
	if ans.Confidence != 0.0 {
		t.Fatalf("confidence = %v, want 0.0", ans.Confidence)
	}
	if ans.Sources != models.NoSourcesFound {
		t.Fatalf("sources = %q, want %q", ans.Sources, models.NoSourcesFound)
	}
	if len(gen.prompts) != 0 {
		t.Fatal("generator must not be called with no results")
	}
	if len(r.History()) != 0 {
		t.Fatal("no-information response must not enter conversation memory")
	}
}

func TestIngestAndAsk(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{output: "Refunds are processed within 14 days."}
	r := newTestRAG(t, gen)

	count, err := r.Ingest(ctx, []string{writePolicyFile(t)})
	if err != nil {
		t.Fatal(err)
	}
	if count < 2 {
		t.Fatalf("ingest produced %d chunks, want at least 2 overlapping chunks", count)
	}
	if !r.CorpusExists() {
		t.Fatal("corpus should exist after ingest")
	}

	ans := r.Ask(ctx, "refund policy")
	if ans.Answer != gen.output {
		t.Fatalf("answer = %q, want generator output", ans.Answer)
	}
	if ans.Confidence < 0.5 || ans.Confidence > 1 {
		t.Fatalf("confidence = %v, want within [0.5, 1]", ans.Confidence)
	}
	if !strings.HasPrefix(ans.Sources, "1. policy.txt") {
		t.Fatalf("sources = %q, want 1-indexed citation for policy.txt", ans.Sources)
	}
	if ans.Err != "" {
		t.Fatalf("unexpected error detail: %s", ans.Err)
	}

	history := r.History()
	if len(history) != 2 {
		t.Fatalf("history has %d turns, want 2", len(history))
	}
	if history[0].Role != models.RoleUser || history[1].Role != models.RoleAssistant {
		t.Fatalf("history roles wrong: %+v", history)
	}

	// The prompt embeds both the context and the question.
	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "refund policy") || !strings.Contains(prompt, "[Page N/A - policy.txt]") {
		t.Fatalf("prompt missing question or context header:\n%s", prompt)
	}
}

func TestRetrievalRanking(t *testing.T) {
	ctx := context.Background()
	r := newTestRAG(t, &fakeGenerator{output: "ok answer"})

	if _, err := r.Ingest(ctx, []string{writePolicyFile(t)}); err != nil {
		t.Fatal(err)
	}

	emb, err := wordEmbedder{}.Embed(ctx, "refund policy")
	if err != nil {
		t.Fatal(err)
	}
	results := r.Retriever().Retrieve(ctx, emb, 0)
	if len(results) == 0 {
		t.Fatal("no results for refund query")
	}
	if !strings.Contains(results[0].Chunk.Content, "14 days") {
		t.Fatalf("chunk with '14 days' not ranked first, got %q", results[0].Chunk.Content)
	}
}

func TestAskFallbackOnDegenerateOutput(t *testing.T) {
	ctx := context.Background()
	for _, output := range []string{"", "abc", "   \n "} {
		gen := &fakeGenerator{output: output}
		r := newTestRAG(t, gen)
		if _, err := r.Ingest(ctx, []string{writePolicyFile(t)}); err != nil {
			t.Fatal(err)
		}

		ans := r.Ask(ctx, "refund policy")
		if ans.Answer == output {
			t.Fatalf("degenerate output %q returned verbatim", output)
		}
		if !strings.Contains(ans.Answer, "Based on the document") {
			t.Fatalf("expected extractive fallback for output %q, got %q", output, ans.Answer)
		}
		if !strings.Contains(ans.Answer, "direct content from your document") {
			t.Fatalf("fallback missing disclosure note: %q", ans.Answer)
		}
		if len(r.History()) != 2 {
			t.Fatal("fallback answers must still enter conversation memory")
		}
	}
}

func TestAskFallbackOnGenerationError(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	r := newTestRAG(t, gen)
	if _, err := r.Ingest(ctx, []string{writePolicyFile(t)}); err != nil {
		t.Fatal(err)
	}

	ans := r.Ask(ctx, "refund policy")
	if ans.Err != "" {
		t.Fatalf("generation failure must not surface as an error answer, got %q", ans.Err)
	}
	if !strings.Contains(ans.Answer, "Based on the document") {
		t.Fatalf("expected extractive fallback, got %q", ans.Answer)
	}
}

func TestFallbackAnswerNoParagraph(t *testing.T) {
	if got := fallbackAnswer("short"); got != models.FallbackEmptyContext {
		t.Fatalf("fallback on unusable context = %q", got)
	}
}

func TestFallbackAnswerCapsLength(t *testing.T) {
	long := strings.Repeat("a", 2000)
	got := fallbackAnswer(long)
	if len(got) > maxFallbackLength+len(models.FallbackTemplate) {
		t.Fatalf("fallback quote not capped, %d chars", len(got))
	}
	if !strings.Contains(got, strings.Repeat("a", maxFallbackLength)) {
		t.Fatal("fallback lost the extracted paragraph")
	}
}

func TestResetConversation(t *testing.T) {
	ctx := context.Background()
	r := newTestRAG(t, &fakeGenerator{output: "a perfectly fine answer"})
	if _, err := r.Ingest(ctx, []string{writePolicyFile(t)}); err != nil {
		t.Fatal(err)
	}

	r.Ask(ctx, "refund policy")
	if len(r.History()) == 0 {
		t.Fatal("expected turns in memory")
	}
	r.ResetConversation()
	if len(r.History()) != 0 {
		t.Fatal("memory not cleared")
	}
}

func TestDeleteCorpus(t *testing.T) {
	ctx := context.Background()
	r := newTestRAG(t, &fakeGenerator{output: "a perfectly fine answer"})
	if _, err := r.Ingest(ctx, []string{writePolicyFile(t)}); err != nil {
		t.Fatal(err)
	}
	if !r.CorpusExists() {
		t.Fatal("corpus missing after ingest")
	}

	if err := r.DeleteCorpus(); err != nil {
		t.Fatal(err)
	}
	if r.CorpusExists() {
		t.Fatal("corpus still exists after delete")
	}

	ans := r.Ask(ctx, "refund policy")
	if ans.Answer != models.NoInformationAnswer {
		t.Fatalf("answer after delete = %q, want no-information sentinel", ans.Answer)
	}
}

func TestIngestRejectsBadFile(t *testing.T) {
	ctx := context.Background()
	r := newTestRAG(t, &fakeGenerator{})

	path := filepath.Join(t.TempDir(), "deck.pptx")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Ingest(ctx, []string{path}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if r.CorpusExists() {
		t.Fatal("failed ingest must not create index state")
	}
}
