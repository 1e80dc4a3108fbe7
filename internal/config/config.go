package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ProcessorConfig configures how course documents are split into chunks.
// ChunkOverlap is a pointer because zero is a valid setting: an explicit
// `chunk_overlap: 0` disables overlap rather than restoring the default.
type ProcessorConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap *int `yaml:"chunk_overlap"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedding function shared by
// the catalog and content indexes.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
// Catalog and content collections are derived from CollectionPrefix.
type QdrantConfig struct {
	URL              string `yaml:"url"`
	APIKey           string `yaml:"api_key"`
	CollectionPrefix string `yaml:"collection_prefix"`
	TimeoutSecs      int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the index backend.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SearchConfig bounds content search and course resolution.
// ResolveThreshold is a pointer for the same reason as ChunkOverlap: an
// explicit `resolve_threshold: 0` turns the confidence cutoff off.
type SearchConfig struct {
	MaxResults       int      `yaml:"max_results"`
	ResolveThreshold *float64 `yaml:"resolve_threshold"`
}

// SessionConfig bounds per-session conversation history.
type SessionConfig struct {
	MaxHistory int `yaml:"max_history"`
}

// GeneratorConfig configures the external answer generator.
type GeneratorConfig struct {
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Processor   ProcessorConfig   `yaml:"processor"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Search      SearchConfig      `yaml:"search"`
	Session     SessionConfig     `yaml:"session"`
	Generator   GeneratorConfig   `yaml:"generator"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Processor.ChunkSize == 0 {
		cfg.Processor.ChunkSize = 800
	}
	if cfg.Processor.ChunkOverlap == nil {
		overlap := 100
		cfg.Processor.ChunkOverlap = &overlap
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		q := cfg.VectorStore.Qdrant
		if q.CollectionPrefix == "" {
			q.CollectionPrefix = "coursechat"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Search.ResolveThreshold == nil {
		threshold := 0.3
		cfg.Search.ResolveThreshold = &threshold
	}
	if cfg.Session.MaxHistory == 0 {
		cfg.Session.MaxHistory = 2
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 800
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 60
	}
}
