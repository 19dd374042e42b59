package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/dmaharana/docchat/internal/models"
)

// Metadata keys persisted alongside each chunk.
const (
	metaFilename    = "filename"
	metaPage        = "page"
	metaChunkIndex  = "chunk_index"
	metaTotalChunks = "total_chunks"
	metaCharLength  = "char_length"
)

// Index is an immutable in-memory snapshot of the searchable store.
// It is produced by Create, Load and Add, and stays valid regardless
// of later disk mutation, so readers never block writers.
type Index struct {
	collection *chromem.Collection
}

// Count reports the number of indexed chunks.
func (ix *Index) Count() int {
	if ix == nil || ix.collection == nil {
		return 0
	}
	return ix.collection.Count()
}

// Search returns the k nearest chunks to the query embedding,
// ascending by distance. Distance is 1 - cosine similarity, so 0
// means identical vectors. An empty index yields an empty result,
// not an error.
func (ix *Index) Search(ctx context.Context, queryEmbedding []float32, k int) ([]models.SearchResult, error) {
	n := ix.Count()
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	results, err := ix.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		distance := 1.0 - float64(r.Similarity)
		if distance < 0 {
			distance = 0
		}
		out = append(out, models.SearchResult{
			Chunk: models.Chunk{
				Content:  r.Content,
				Metadata: decodeMetadata(r.Metadata),
			},
			Distance: distance,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

func encodeMetadata(m models.ChunkMetadata) map[string]string {
	return map[string]string{
		metaFilename:    m.SourceFile,
		metaPage:        m.PageLabel(),
		metaChunkIndex:  strconv.Itoa(m.ChunkIndex),
		metaTotalChunks: strconv.Itoa(m.TotalChunks),
		metaCharLength:  strconv.Itoa(m.CharLength),
	}
}

func decodeMetadata(raw map[string]string) models.ChunkMetadata {
	m := models.ChunkMetadata{SourceFile: raw[metaFilename]}
	if page, err := strconv.Atoi(raw[metaPage]); err == nil {
		m.Page = page
	}
	m.ChunkIndex, _ = strconv.Atoi(raw[metaChunkIndex])
	m.TotalChunks, _ = strconv.Atoi(raw[metaTotalChunks])
	m.CharLength, _ = strconv.Atoi(raw[metaCharLength])
	return m
}
