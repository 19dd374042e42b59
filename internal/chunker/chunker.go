// Package chunker splits extracted page text into overlapping
// retrieval units with provenance metadata.
package chunker

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/dmaharana/docchat/internal/config"
	"github.com/dmaharana/docchat/internal/models"
)

// separators is the layered split ladder: paragraph breaks first,
// then lines, sentence ends, clause punctuation, whitespace, and
// finally individual characters. A later separator is only used when
// a piece still exceeds the chunk size.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " ", ""}

type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// New builds a chunker from the RAG configuration. Overlap must be
// strictly smaller than the chunk size, otherwise splitting would
// not terminate.
func New(cfg config.RAGConfig) (*Chunker, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be in [0, chunk size %d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithSeparators(separators),
	)

	return &Chunker{splitter: splitter}, nil
}

// Split turns pages into chunks. A whitespace-only page yields zero
// chunks. Within one page the chunk indexes are contiguous 0..n-1
// and every chunk records the true sibling count.
func (c *Chunker) Split(pages []models.Page) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}

		pieces, err := c.splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d of %s: %w", page.Number, page.Source, err)
		}

		kept := pieces[:0]
		for _, piece := range pieces {
			piece = strings.TrimSpace(piece)
			if piece != "" {
				kept = append(kept, piece)
			}
		}

		log.Debug().
			Str("source", page.Source).
			Int("page", page.Number).
			Int("chunks", len(kept)).
			Msg("split page")

		for i, piece := range kept {
			chunks = append(chunks, models.Chunk{
				Content: piece,
				Metadata: models.ChunkMetadata{
					SourceFile:  page.Source,
					Page:        page.Number,
					ChunkIndex:  i,
					TotalChunks: len(kept),
					CharLength:  len(piece),
				},
			})
		}
	}
	return chunks, nil
}
