// Package rag orchestrates a question end to end: retrieve, build a
// bounded context, generate, validate, fall back to extractive
// quoting when generation is absent or degenerate. Ask never
// surfaces a hard error to the caller.
package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmaharana/docchat/internal/chunker"
	"github.com/dmaharana/docchat/internal/confidence"
	"github.com/dmaharana/docchat/internal/config"
	"github.com/dmaharana/docchat/internal/embedding"
	"github.com/dmaharana/docchat/internal/loader"
	"github.com/dmaharana/docchat/internal/models"
	"github.com/dmaharana/docchat/internal/retriever"
	"github.com/dmaharana/docchat/internal/vectorstore"
)

const (
	// Generated answers shorter than this are treated as degenerate
	// and replaced by the extractive fallback.
	minAnswerLength = 5

	// Fallback extraction limits.
	minParagraphLength = 30
	maxFallbackLength  = 800
)

// Generator is the external generate(prompt) -> text capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type RAG struct {
	cfg       *config.Config
	store     *vectorstore.Manager
	chunker   *chunker.Chunker
	embedder  embedding.Embedder
	generator Generator
	retriever *retriever.Retriever

	mu     sync.Mutex
	memory []models.Turn
}

// New wires the pipeline together and loads the persisted index if
// one exists. An absent index is not an error; retrieval simply
// returns nothing until documents are ingested.
func New(ctx context.Context, cfg *config.Config, store *vectorstore.Manager, embedder embedding.Embedder, generator Generator) (*RAG, error) {
	ck, err := chunker.New(cfg.RAG)
	if err != nil {
		return nil, err
	}

	idx, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &RAG{
		cfg:       cfg,
		store:     store,
		chunker:   ck,
		embedder:  embedder,
		generator: generator,
		retriever: retriever.New(idx, cfg.RAG),
	}, nil
}

// Retriever exposes the underlying retriever for scoped queries.
func (r *RAG) Retriever() *retriever.Retriever {
	return r.retriever
}

// Ingest validates, loads and chunks each file, then merges the
// chunks into the index. A bad file fails the whole batch before any
// index mutation, so existing state is never corrupted by a failed
// ingest. Returns the number of chunks added.
func (r *RAG) Ingest(ctx context.Context, paths []string) (int, error) {
	var chunks []models.Chunk
	for _, path := range paths {
		if err := loader.Validate(path, r.cfg.RAG.MaxFileSizeMB); err != nil {
			return 0, err
		}
		pages, err := loader.LoadPages(path)
		if err != nil {
			return 0, err
		}
		fileChunks, err := r.chunker.Split(pages)
		if err != nil {
			return 0, err
		}
		if len(fileChunks) == 0 {
			return 0, fmt.Errorf("no usable content in %s", path)
		}
		chunks = append(chunks, fileChunks...)
	}

	idx, err := r.store.Add(ctx, chunks, r.embedder)
	if err != nil {
		return 0, err
	}
	r.retriever.SetIndex(idx)

	log.Info().Int("files", len(paths)).Int("chunks", len(chunks)).Msg("ingested documents")
	return len(chunks), nil
}

// Ask answers a question from the corpus. The returned Answer always
// carries a user-safe message; failures are folded into it with
// confidence forced to zero and the detail preserved in Err.
func (r *RAG) Ask(ctx context.Context, question string) models.Answer {
	queryEmbedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		log.Error().Err(err).Msg("failed to embed question")
		return errorAnswer(err)
	}

	results := r.retriever.Retrieve(ctx, queryEmbedding, 0)
	if len(results) == 0 {
		log.Warn().Msg("no relevant documents found")
		return models.Answer{
			Answer:     models.NoInformationAnswer,
			Confidence: 0.0,
			Sources:    models.NoSourcesFound,
		}
	}

	distances := make([]float64, len(results))
	for i, res := range results {
		distances[i] = res.Distance
	}
	conf := confidence.Aggregate(distances)
	sources := r.retriever.FormatSources(results)

	fullContext := buildContext(results)
	limited := fullContext
	if len(limited) > r.cfg.RAG.MaxContextLength {
		// Hard cut: bounds the prompt regardless of chunk sizes.
		limited = limited[:r.cfg.RAG.MaxContextLength]
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, limited, question)
	log.Debug().Int("context_chars", len(limited)).Int("results", len(results)).Msg("generating answer")

	answer, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("generation failed, using fallback")
		answer = ""
	}
	answer = strings.TrimSpace(answer)
	if len(answer) < minAnswerLength {
		answer = fallbackAnswer(fullContext)
	}

	r.remember(question, answer)
	return models.Answer{
		Answer:     answer,
		Confidence: conf,
		Sources:    sources,
	}
}

// buildContext concatenates ranked chunks most-relevant-first, each
// prefixed with a provenance header.
func buildContext(results []models.SearchResult) string {
	parts := make([]string, len(results))
	for i, res := range results {
		m := res.Chunk.Metadata
		parts[i] = fmt.Sprintf("[Page %s - %s]\n%s", m.PageLabel(), m.SourceFile, res.Chunk.Content)
	}
	return strings.Join(parts, models.ContextSeparator)
}

// fallbackAnswer quotes the first substantial context paragraph when
// generation produced nothing usable, disclosing that it is raw
// document content.
func fallbackAnswer(docContext string) string {
	for _, para := range strings.Split(docContext, "\n\n") {
		para = strings.TrimSpace(para)
		if len(para) <= minParagraphLength {
			continue
		}
		if len(para) > maxFallbackLength {
			para = para[:maxFallbackLength]
		}
		return fmt.Sprintf(models.FallbackTemplate, para)
	}
	return models.FallbackEmptyContext
}

func errorAnswer(err error) models.Answer {
	return models.Answer{
		Answer:     "Sorry, I encountered an error. Please try again or rephrase your question.",
		Confidence: 0.0,
		Sources:    "",
		Err:        err.Error(),
	}
}

func (r *RAG) remember(question, answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memory = append(r.memory,
		models.Turn{Role: models.RoleUser, Content: question},
		models.Turn{Role: models.RoleAssistant, Content: answer},
	)
}

// History returns a copy of the conversation memory. The memory is
// tracked turn by turn but not yet interpolated into the prompt.
func (r *RAG) History() []models.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Turn, len(r.memory))
	copy(out, r.memory)
	return out
}

// ResetConversation clears the conversation memory.
func (r *RAG) ResetConversation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memory = nil
	log.Info().Msg("conversation memory cleared")
}

// DeleteCorpus removes the persisted index and drops the in-memory
// snapshot.
func (r *RAG) DeleteCorpus() error {
	if err := r.store.Delete(); err != nil {
		return err
	}
	r.retriever.SetIndex(nil)
	return nil
}

// CorpusExists reports whether a searchable index is persisted.
func (r *RAG) CorpusExists() bool {
	return r.store.Exists()
}
