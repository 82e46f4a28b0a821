package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RetrievalConfig struct {
	K               int     `yaml:"k"`
	Threshold       float64 `yaml:"threshold"`
	MaxContextChars int     `yaml:"max_context_chars"`
}

type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type GeneratorConfig struct {
	Provider          string `yaml:"provider"`
	Model             string `yaml:"model"`
	APIKeyEnv         string `yaml:"api_key_env"`
	BaseURL           string `yaml:"base_url,omitempty"`
	TimeoutSecs       int    `yaml:"timeout_secs"`
	FallbackOnTimeout bool   `yaml:"fallback_on_timeout"`
}

type IndexConfig struct {
	// Backend selects "memory" (exact, default) or "annoy" (approximate,
	// for large corpora).
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	NumTrees int    `yaml:"num_trees,omitempty"`
}

type IngestConfig struct {
	DocsDir      string `yaml:"docs_dir"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

type Config struct {
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Index     IndexConfig     `yaml:"index"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

func DefaultConfig() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			K:               5,
			Threshold:       0.75,
			MaxContextChars: 4000,
		},
		Embedder: EmbedderConfig{
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "text-embedding-3-small",
			Dimension:   1536,
			TimeoutSecs: 30,
		},
		Generator: GeneratorConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 60,
		},
		Index: IndexConfig{
			Backend:  "memory",
			Path:     ".askdoc/index",
			NumTrees: 10,
		},
		Ingest: IngestConfig{
			DocsDir:      "docs",
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate fails fast at startup: a bad threshold or k must never surface as
// a per-query failure.
func (c *Config) Validate() error {
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval.k must be positive, got %d", ErrInvalidConfig, c.Retrieval.K)
	}
	if c.Retrieval.Threshold < -1 || c.Retrieval.Threshold > 1 {
		return fmt.Errorf("%w: retrieval.threshold must be in [-1, 1], got %g", ErrInvalidConfig, c.Retrieval.Threshold)
	}
	if c.Retrieval.MaxContextChars <= 0 {
		return fmt.Errorf("%w: retrieval.max_context_chars must be positive, got %d", ErrInvalidConfig, c.Retrieval.MaxContextChars)
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("%w: embedder.dimension must be positive, got %d", ErrInvalidConfig, c.Embedder.Dimension)
	}
	if c.Embedder.Model == "" {
		return fmt.Errorf("%w: embedder.model is required", ErrInvalidConfig)
	}
	if c.Generator.Provider == "" || c.Generator.Model == "" {
		return fmt.Errorf("%w: generator.provider and generator.model are required", ErrInvalidConfig)
	}
	switch c.Index.Backend {
	case "memory", "annoy":
	default:
		return fmt.Errorf("%w: index.backend must be memory or annoy, got %q", ErrInvalidConfig, c.Index.Backend)
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("%w: ingest.chunk_size must be positive, got %d", ErrInvalidConfig, c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("%w: ingest.chunk_overlap must be in [0, chunk_size), got %d", ErrInvalidConfig, c.Ingest.ChunkOverlap)
	}
	return nil
}

func (c *Config) PipelineConfig() PipelineConfig {
	return PipelineConfig{
		K:                 c.Retrieval.K,
		Threshold:         c.Retrieval.Threshold,
		MaxContextChars:   c.Retrieval.MaxContextChars,
		GenerateTimeout:   time.Duration(c.Generator.TimeoutSecs) * time.Second,
		FallbackOnTimeout: c.Generator.FallbackOnTimeout,
	}
}

// NewIndex builds the configured index backend, sized to the embedder's
// vector dimension so a config/embedder mismatch fails at startup.
func (c *Config) NewIndex(embedder Embedder) (VectorIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: index needs an embedder to size against", ErrInvalidConfig)
	}
	switch c.Index.Backend {
	case "annoy":
		return NewAnnoyIndex(c.Index.Path, embedder.Dimension(), c.Index.NumTrees)
	default:
		return NewMemoryIndex(c.Index.Path, embedder.Dimension())
	}
}

// NewEmbedder builds the embedder client, resolving the API key from the
// configured environment variable.
func (c *Config) NewEmbedder() (Embedder, error) {
	return NewOpenAIEmbedder(OpenAIEmbedderConfig{
		BaseURL:   c.Embedder.BaseURL,
		APIKey:    os.Getenv(c.Embedder.APIKeyEnv),
		Model:     c.Embedder.Model,
		Dimension: c.Embedder.Dimension,
		Timeout:   time.Duration(c.Embedder.TimeoutSecs) * time.Second,
	})
}
