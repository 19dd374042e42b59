// Package vectorstore owns the persistent similarity index over chunk
// embeddings. The on-disk state is two artifacts in the index
// directory: the exported chromem collection and a manifest. Both
// present means the index exists; any subset is treated as absent.
// Every mutating operation persists via write-to-temp then atomic
// rename, so a crash never leaves a partially written index behind.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github.com/dmaharana/docchat/internal/embedding"
	"github.com/dmaharana/docchat/internal/helper"
	"github.com/dmaharana/docchat/internal/models"
)

// ErrEmptyIndexInput is returned when Create is called without chunks.
var ErrEmptyIndexInput = errors.New("cannot build an index from zero chunks")

const (
	snapshotSuffix = ".chromem"
	manifestName   = "manifest.json"
	tmpSuffix      = ".tmp"
	compress       = false
)

type manifest struct {
	Collection string    `json:"collection"`
	Chunks     int       `json:"chunks"`
	Dimension  int       `json:"dimension"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Manager serializes all mutations of the on-disk index. Reads go
// through Index snapshots and never block mutation.
type Manager struct {
	mu         sync.Mutex
	dir        string
	collection string
}

// NewManager creates a manager rooted at dir for the named
// collection. The directory is created on demand by mutating calls.
func NewManager(dir, collection string) *Manager {
	return &Manager{dir: dir, collection: collection}
}

func (m *Manager) snapshotPath() string {
	return filepath.Join(m.dir, m.collection+snapshotSuffix)
}

func (m *Manager) manifestPath() string {
	return filepath.Join(m.dir, manifestName)
}

// Exists reports whether all artifacts required to reconstruct the
// index are present.
func (m *Manager) Exists() bool {
	for _, p := range []string{m.snapshotPath(), m.manifestPath()} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Create embeds every chunk, builds a fresh index and persists it.
// Fails on empty input.
func (m *Manager) Create(ctx context.Context, chunks []models.Chunk, embedder embedding.Embedder) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(ctx, chunks, embedder)
}

func (m *Manager) create(ctx context.Context, chunks []models.Chunk, embedder embedding.Embedder) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyIndexInput
	}

	docs, dim, err := embedChunks(ctx, chunks, embedder)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(m.collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	if err := m.persist(db, col.Count(), dim); err != nil {
		return nil, err
	}

	log.Info().Int("chunks", len(docs)).Int("dimension", dim).Msg("created vector index")
	return &Index{collection: col}, nil
}

// Load reconstructs the index from disk. Returns (nil, nil) when no
// valid persisted state exists; corruption is logged and treated as
// absence, recoverable by re-ingestion.
func (m *Manager) Load(ctx context.Context) (*Index, error) {
	if !m.Exists() {
		return nil, nil
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(m.snapshotPath(), ""); err != nil {
		log.Warn().Err(err).Msg("vector index unreadable, treating as absent")
		return nil, nil
	}
	col := db.GetCollection(m.collection, nil)
	if col == nil {
		log.Warn().Str("collection", m.collection).Msg("collection missing from snapshot, treating as absent")
		return nil, nil
	}

	log.Debug().Int("chunks", col.Count()).Msg("loaded vector index")
	return &Index{collection: col}, nil
}

// Add merges new chunks into the persisted index, creating it first
// if absent. The merged result is re-persisted atomically.
func (m *Manager) Add(ctx context.Context, chunks []models.Chunk, embedder embedding.Embedder) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(chunks) == 0 {
		return nil, ErrEmptyIndexInput
	}

	if !m.Exists() {
		return m.create(ctx, chunks, embedder)
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(m.snapshotPath(), ""); err != nil {
		log.Warn().Err(err).Msg("existing index unreadable, rebuilding from new chunks")
		return m.create(ctx, chunks, embedder)
	}
	col := db.GetCollection(m.collection, nil)
	if col == nil {
		return m.create(ctx, chunks, embedder)
	}

	docs, dim, err := embedChunks(ctx, chunks, embedder)
	if err != nil {
		return nil, err
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	if err := m.persist(db, col.Count(), dim); err != nil {
		return nil, err
	}

	log.Info().Int("added", len(docs)).Int("total", col.Count()).Msg("updated vector index")
	return &Index{collection: col}, nil
}

// Delete removes all persisted index state. Idempotent: deleting an
// absent index is a no-op.
func (m *Manager) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Manifest first so a crash mid-delete leaves a subset, which
	// Exists already treats as absent.
	paths := []string{
		m.manifestPath(),
		m.snapshotPath(),
		m.manifestPath() + tmpSuffix,
		m.snapshotPath() + tmpSuffix,
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", p, err)
		}
	}
	log.Info().Str("dir", m.dir).Msg("deleted vector index")
	return nil
}

// persist writes both artifacts through temp files and renames them
// into place. The snapshot lands first; until the manifest rename
// completes the index still reads as absent.
func (m *Manager) persist(db *chromem.DB, chunkCount, dimension int) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	snapTmp := m.snapshotPath() + tmpSuffix
	if err := db.ExportToFile(snapTmp, compress, "", m.collection); err != nil {
		return fmt.Errorf("failed to export index: %w", err)
	}
	if err := os.Rename(snapTmp, m.snapshotPath()); err != nil {
		return fmt.Errorf("failed to commit index snapshot: %w", err)
	}

	mf := manifest{
		Collection: m.collection,
		Chunks:     chunkCount,
		Dimension:  dimension,
		UpdatedAt:  time.Now().UTC(),
	}
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	mfTmp := m.manifestPath() + tmpSuffix
	if err := os.WriteFile(mfTmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(mfTmp, m.manifestPath()); err != nil {
		return fmt.Errorf("failed to commit manifest: %w", err)
	}
	return nil
}

func embedChunks(ctx context.Context, chunks []models.Chunk, embedder embedding.Embedder) ([]chromem.Document, int, error) {
	docs := make([]chromem.Document, 0, len(chunks))
	dimension := 0
	for _, chunk := range chunks {
		vec, err := embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to embed chunk from %s: %w", chunk.Metadata.SourceFile, err)
		}
		if dimension == 0 {
			dimension = len(vec)
		} else if len(vec) != dimension {
			return nil, 0, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), dimension)
		}

		id, err := helper.GenerateUUID()
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, chromem.Document{
			ID:        id,
			Content:   chunk.Content,
			Metadata:  encodeMetadata(chunk.Metadata),
			Embedding: vec,
		})
	}
	return docs, dimension, nil
}
