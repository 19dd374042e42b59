package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig describes one external model endpoint (embedding or
// inference). Provider is "openai" for any OpenAI-compatible API, or
// "ollama" for a local Ollama server.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RAGConfig holds the retrieval pipeline tunables.
type RAGConfig struct {
	IndexDir         string `yaml:"index_dir"`
	Collection       string `yaml:"collection"`
	ChunkSize        int    `yaml:"chunk_size"`
	ChunkOverlap     int    `yaml:"chunk_overlap"`
	TopK             int    `yaml:"top_k"`
	MaxContextLength int    `yaml:"max_context_length"`
	EmbedCacheSize   int    `yaml:"embed_cache_size"`
	MaxFileSizeMB    int    `yaml:"max_file_size_mb"`
}

type Config struct {
	EmbedLLM     LLMConfig `yaml:"embed_llm"`
	InferenceLLM LLMConfig `yaml:"inference_llm"`
	RAG          RAGConfig `yaml:"rag"`
}

const (
	defaultIndexDir         = "./vector_db"
	defaultCollection       = "docchat"
	defaultChunkSize        = 1500
	defaultChunkOverlap     = 300
	defaultTopK             = 10
	defaultMaxContextLength = 6000
	defaultEmbedCacheSize   = 4096
	defaultMaxFileSizeMB    = 10
	apiKeyEnv               = "LLM_API_KEY"
)

// LoadConfig reads the YAML config at path, fills defaults and
// overlays the API key from the environment. A missing file yields
// the defaults rather than an error.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, err
	}

	cfg.applyDefaults()
	if key := os.Getenv(apiKeyEnv); key != "" {
		if cfg.EmbedLLM.Key == "" {
			cfg.EmbedLLM.Key = key
		}
		if cfg.InferenceLLM.Key == "" {
			cfg.InferenceLLM.Key = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RAG.IndexDir == "" {
		c.RAG.IndexDir = defaultIndexDir
	}
	if c.RAG.Collection == "" {
		c.RAG.Collection = defaultCollection
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.MaxContextLength == 0 {
		c.RAG.MaxContextLength = defaultMaxContextLength
	}
	if c.RAG.EmbedCacheSize == 0 {
		c.RAG.EmbedCacheSize = defaultEmbedCacheSize
	}
	if c.RAG.MaxFileSizeMB == 0 {
		c.RAG.MaxFileSizeMB = defaultMaxFileSizeMB
	}
}

// Validate rejects configurations that would make chunking degenerate
// or retrieval useless. Called before any document is processed.
func (c *Config) Validate() error {
	r := c.RAG
	if r.ChunkSize < 100 || r.ChunkSize > 5000 {
		return fmt.Errorf("chunk_size must be between 100 and 5000, got %d", r.ChunkSize)
	}
	if r.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must not be negative, got %d", r.ChunkOverlap)
	}
	if r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be less than chunk_size (%d)", r.ChunkOverlap, r.ChunkSize)
	}
	if r.TopK < 1 || r.TopK > 20 {
		return fmt.Errorf("top_k must be between 1 and 20, got %d", r.TopK)
	}
	if r.MaxContextLength <= 0 {
		return fmt.Errorf("max_context_length must be positive, got %d", r.MaxContextLength)
	}
	if r.EmbedCacheSize <= 0 {
		return fmt.Errorf("embed_cache_size must be positive, got %d", r.EmbedCacheSize)
	}
	return nil
}
