// Package retriever ranks indexed chunks against a query embedding
// and formats citations. Retrieval failures are recovered locally to
// empty result sets; callers never see them as errors.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dmaharana/docchat/internal/confidence"
	"github.com/dmaharana/docchat/internal/config"
	"github.com/dmaharana/docchat/internal/models"
	"github.com/dmaharana/docchat/internal/vectorstore"
)

const (
	// Over-fetch factors for scoped retrieval. The index has no
	// native page filter, so page constraints are applied after the
	// base retrieval; fetching extra compensates for the expected
	// loss to filtering.
	pageOverFetch  = 3
	rangeOverFetch = 2
)

type Retriever struct {
	index *vectorstore.Index
	topK  int
}

// New builds a retriever over an index snapshot. The index may be
// nil (absent corpus); every retrieval then returns empty results.
func New(index *vectorstore.Index, cfg config.RAGConfig) *Retriever {
	return &Retriever{index: index, topK: cfg.TopK}
}

// SetIndex swaps in a fresh snapshot after ingestion or deletion.
func (r *Retriever) SetIndex(index *vectorstore.Index) {
	r.index = index
}

// Retrieve returns the k most similar chunks, ascending by distance.
// k <= 0 uses the configured default.
func (r *Retriever) Retrieve(ctx context.Context, queryEmbedding []float32, k int) []models.SearchResult {
	if k <= 0 {
		k = r.topK
	}
	if r.index == nil {
		return nil
	}
	results, err := r.index.Search(ctx, queryEmbedding, k)
	if err != nil {
		log.Error().Err(err).Msg("retrieval failed, returning no results")
		return nil
	}
	if len(results) > 0 {
		log.Debug().
			Float64("top_distance", results[0].Distance).
			Str("top_page", results[0].Chunk.Metadata.PageLabel()).
			Int("count", len(results)).
			Msg("retrieved chunks")
	}
	return results
}

// RetrieveWithin retrieves like Retrieve but discards results whose
// distance exceeds maxDistance. Filtering never back-fills with
// far-away results; zero survivors is an empty slice, not an error.
func (r *Retriever) RetrieveWithin(ctx context.Context, queryEmbedding []float32, k int, maxDistance float64) []models.SearchResult {
	results := r.Retrieve(ctx, queryEmbedding, k)
	filtered := results[:0]
	for _, res := range results {
		if res.Distance <= maxDistance {
			filtered = append(filtered, res)
		}
	}
	return filtered
}

// RetrievePage retrieves only chunks from the given page. It
// over-fetches from the base retrieval, filters to exact page
// matches and truncates to k.
func (r *Retriever) RetrievePage(ctx context.Context, queryEmbedding []float32, page, k int) []models.SearchResult {
	if k <= 0 {
		k = r.topK
	}
	all := r.Retrieve(ctx, queryEmbedding, k*pageOverFetch)
	var onPage []models.SearchResult
	for _, res := range all {
		if res.Chunk.Metadata.Page == page {
			onPage = append(onPage, res)
		}
	}
	if len(onPage) > k {
		onPage = onPage[:k]
	}
	return onPage
}

// RetrieveRange retrieves chunks whose page lies in [startPage,
// endPage]. Pageless chunks are excluded. Results are ordered by
// (page ascending, distance ascending), a reading-order bias distinct
// from pure relevance order.
func (r *Retriever) RetrieveRange(ctx context.Context, queryEmbedding []float32, startPage, endPage, k int) []models.SearchResult {
	if k <= 0 {
		k = r.topK
	}
	all := r.Retrieve(ctx, queryEmbedding, k*rangeOverFetch)
	var inRange []models.SearchResult
	for _, res := range all {
		page := res.Chunk.Metadata.Page
		if page == models.PageUnknown {
			continue
		}
		if page >= startPage && page <= endPage {
			inRange = append(inRange, res)
		}
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		pi, pj := inRange[i].Chunk.Metadata.Page, inRange[j].Chunk.Metadata.Page
		if pi != pj {
			return pi < pj
		}
		return inRange[i].Distance < inRange[j].Distance
	})
	if len(inRange) > k {
		inRange = inRange[:k]
	}
	return inRange
}

// FormatSources renders results as 1-indexed citation lines with the
// per-result confidence as a percentage.
func (r *Retriever) FormatSources(results []models.SearchResult) string {
	if len(results) == 0 {
		return models.NoSources
	}
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		conf := confidence.Score(res.Distance)
		fmt.Fprintf(&b, "%d. %s (Page %s, Confidence: %.1f%%)",
			i+1, res.Chunk.Metadata.SourceFile, res.Chunk.Metadata.PageLabel(), conf*100)
	}
	return b.String()
}

// RetrieveWithContext returns a formatted inspection dump of the
// results for a query: provenance, confidence and content per chunk.
func (r *Retriever) RetrieveWithContext(ctx context.Context, queryEmbedding []float32, k int) string {
	results := r.Retrieve(ctx, queryEmbedding, k)
	if len(results) == 0 {
		return "No relevant documents found."
	}
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		m := res.Chunk.Metadata
		fmt.Fprintf(&b, "[%s] - Page %s (Chunk %d/%d)\n", m.SourceFile, m.PageLabel(), m.ChunkIndex+1, m.TotalChunks)
		fmt.Fprintf(&b, "   Confidence: %.2f%% | Distance: %.4f\n", confidence.Score(res.Distance)*100, res.Distance)
		b.WriteString(strings.Repeat("-", 70) + "\n")
		b.WriteString(res.Chunk.Content + "\n")
	}
	return b.String()
}

// Stats summarizes a result set.
type Stats struct {
	Count         int
	AvgConfidence float64
	MinDistance   float64
	MaxDistance   float64
	Pages         []int
	Files         []string
}

// Summarize computes retrieval statistics over a result set.
func (r *Retriever) Summarize(results []models.SearchResult) Stats {
	if len(results) == 0 {
		return Stats{}
	}

	s := Stats{
		Count:       len(results),
		MinDistance: results[0].Distance,
		MaxDistance: results[0].Distance,
	}
	pages := map[int]bool{}
	files := map[string]bool{}
	var confSum float64
	for _, res := range results {
		confSum += confidence.Score(res.Distance)
		if res.Distance < s.MinDistance {
			s.MinDistance = res.Distance
		}
		if res.Distance > s.MaxDistance {
			s.MaxDistance = res.Distance
		}
		if p := res.Chunk.Metadata.Page; p != models.PageUnknown && !pages[p] {
			pages[p] = true
			s.Pages = append(s.Pages, p)
		}
		if f := res.Chunk.Metadata.SourceFile; !files[f] {
			files[f] = true
			s.Files = append(s.Files, f)
		}
	}
	s.AvgConfidence = confSum / float64(len(results))
	sort.Ints(s.Pages)
	return s
}
