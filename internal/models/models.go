package models

import "strconv"

// PageUnknown marks content with no page concept (plain text files).
const PageUnknown = 0

// Page is one unit of extracted text from a source document.
// Number is 1-indexed; PageUnknown when the format has no pages.
type Page struct {
	Text   string
	Number int
	Source string
}

// ChunkMetadata carries the provenance of a chunk back to its source.
type ChunkMetadata struct {
	SourceFile  string
	Page        int
	ChunkIndex  int
	TotalChunks int
	CharLength  int
}

// PageLabel returns the page number for display, or "N/A" for
// content without pages.
func (m ChunkMetadata) PageLabel() string {
	if m.Page == PageUnknown {
		return "N/A"
	}
	return strconv.Itoa(m.Page)
}

// Chunk is the atomic retrieval unit. Immutable once created.
type Chunk struct {
	Content  string
	Metadata ChunkMetadata
}

// SearchResult pairs a chunk with its raw distance to the query.
// Smaller distance means more similar.
type SearchResult struct {
	Chunk    Chunk
	Distance float64
}

// Turn is one entry of the conversation memory.
type Turn struct {
	Role    string
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Answer is the orchestrator's response to a single question.
// Err carries the underlying failure detail for logging; the
// Answer text itself is always user-safe.
type Answer struct {
	Answer     string
	Confidence float64
	Sources    string
	Err        string
}
