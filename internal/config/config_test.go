package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RAG.ChunkSize != defaultChunkSize {
		t.Fatalf("chunk size = %d, want default %d", cfg.RAG.ChunkSize, defaultChunkSize)
	}
	if cfg.RAG.TopK != defaultTopK {
		t.Fatalf("top_k = %d, want default %d", cfg.RAG.TopK, defaultTopK)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
rag:
  chunk_size: 1000
  chunk_overlap: 200
  top_k: 5
embed_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: nomic-embed-text
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.ChunkOverlap != 200 || cfg.RAG.TopK != 5 {
		t.Fatalf("config not applied: %+v", cfg.RAG)
	}
	if cfg.EmbedLLM.Model != "nomic-embed-text" {
		t.Fatalf("embed model = %q", cfg.EmbedLLM.Model)
	}
	// Unset values still fall back to defaults.
	if cfg.RAG.MaxContextLength != defaultMaxContextLength {
		t.Fatalf("max context = %d, want default", cfg.RAG.MaxContextLength)
	}
}

func TestValidate(t *testing.T) {
	base := RAGConfig{
		ChunkSize:        1500,
		ChunkOverlap:     300,
		TopK:             10,
		MaxContextLength: 6000,
		EmbedCacheSize:   4096,
	}

	tests := []struct {
		name    string
		mutate  func(*RAGConfig)
		wantErr bool
	}{
		{"valid", func(r *RAGConfig) {}, false},
		{"overlap equals size", func(r *RAGConfig) { r.ChunkOverlap = r.ChunkSize }, true},
		{"overlap exceeds size", func(r *RAGConfig) { r.ChunkOverlap = r.ChunkSize + 1 }, true},
		{"chunk size too small", func(r *RAGConfig) { r.ChunkSize = 50; r.ChunkOverlap = 10 }, true},
		{"chunk size too large", func(r *RAGConfig) { r.ChunkSize = 10000 }, true},
		{"top_k zero", func(r *RAGConfig) { r.TopK = 0 }, true},
		{"top_k too large", func(r *RAGConfig) { r.TopK = 50 }, true},
		{"negative overlap", func(r *RAGConfig) { r.ChunkOverlap = -1 }, true},
		{"zero context budget", func(r *RAGConfig) { r.MaxContextLength = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			cfg := &Config{RAG: r}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
