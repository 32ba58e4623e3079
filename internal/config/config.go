// Package config loads the typed TOML configuration honoured by the
// retrieval core: chunking policy, embedding backend, index backend and
// metric, and default retrieval parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultChunkTargetSize = 500
	DefaultChunkOverlap    = 50
	DefaultTopK            = 5
	DefaultMinScore        = 0.6
	DefaultMetric          = "cosine"
	DefaultEmbeddingType   = "ollama"
	DefaultIndexType       = "flat"
)

// ChunkingConfig configures how documents are split into chunks.
type ChunkingConfig struct {
	// TargetSize is the chunk size in words.
	TargetSize int `toml:"target_size"`

	// Overlap is the number of words shared between adjacent chunks.
	Overlap int `toml:"overlap"`
}

// OllamaConfig holds settings for the Ollama embedding backend.
type OllamaConfig struct {
	BaseURL     string `toml:"base_url"`
	Model       string `toml:"model"`
	Dimensions  int    `toml:"dimensions"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// OpenAIConfig holds settings for the OpenAI embedding backend.
type OpenAIConfig struct {
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv         string  `toml:"api_key_env"`
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	Dimensions        int     `toml:"dimensions"`
	TimeoutSecs       int     `toml:"timeout_secs"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Type is the backend identifier: "ollama" or "openai".
	Type   string       `toml:"type"`
	Ollama OllamaConfig `toml:"ollama"`
	OpenAI OpenAIConfig `toml:"openai"`
}

// QdrantConfig holds connection details for a Qdrant vector index.
type QdrantConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Collection string `toml:"collection"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	// Type is the backend identifier: "flat" or "qdrant".
	Type string `toml:"type"`

	// Metric is the similarity metric: "cosine" or "dot". Changing it
	// after documents are indexed is rejected at load time.
	Metric string `toml:"metric"`

	Qdrant QdrantConfig `toml:"qdrant"`
}

// RetrievalConfig holds the default query parameters.
type RetrievalConfig struct {
	DefaultK int `toml:"default_k"`

	// DefaultMinScore is a pointer so an explicit zero floor in the file
	// is distinguishable from the key being absent.
	DefaultMinScore *float64 `toml:"default_min_score"`
}

// Config is the root configuration structure.
type Config struct {
	// DataDir holds the metadata database and the persisted vector index.
	DataDir string `toml:"data_dir"`

	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// Load reads configuration from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			TargetSize: DefaultChunkTargetSize,
			Overlap:    DefaultChunkOverlap,
		},
		Embedding: EmbeddingConfig{
			Type: DefaultEmbeddingType,
		},
		Index: IndexConfig{
			Type:   DefaultIndexType,
			Metric: DefaultMetric,
		},
		Retrieval: RetrievalConfig{
			DefaultK:        DefaultTopK,
			DefaultMinScore: floatPtr(DefaultMinScore),
		},
	}
}

// DefaultDataDir returns ~/.compliance-assistant/data.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".compliance-assistant", "data"), nil
}

// Validate rejects configurations the core cannot honour.
func (c *Config) Validate() error {
	if c.Chunking.TargetSize <= 0 {
		return fmt.Errorf("chunking.target_size must be positive, got %d", c.Chunking.TargetSize)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Index.Metric != "cosine" && c.Index.Metric != "dot" {
		return fmt.Errorf("index.metric must be cosine or dot, got %q", c.Index.Metric)
	}
	if c.Retrieval.DefaultMinScore != nil && *c.Retrieval.DefaultMinScore < 0 {
		return fmt.Errorf("retrieval.default_min_score must not be negative, got %g", *c.Retrieval.DefaultMinScore)
	}
	switch c.Embedding.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("embedding.type must be ollama or openai, got %q", c.Embedding.Type)
	}
	switch c.Index.Type {
	case "flat", "qdrant":
	default:
		return fmt.Errorf("index.type must be flat or qdrant, got %q", c.Index.Type)
	}
	return nil
}

// applyDefaults fills zero values left by a partial config file.
func applyDefaults(cfg *Config) {
	if cfg.Chunking.TargetSize == 0 {
		cfg.Chunking.TargetSize = DefaultChunkTargetSize
	}
	if cfg.Embedding.Type == "" {
		cfg.Embedding.Type = DefaultEmbeddingType
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = DefaultIndexType
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = DefaultMetric
	}
	if cfg.Retrieval.DefaultK == 0 {
		cfg.Retrieval.DefaultK = DefaultTopK
	}
	if cfg.Retrieval.DefaultMinScore == nil {
		cfg.Retrieval.DefaultMinScore = floatPtr(DefaultMinScore)
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
