package v1

import (
	"context"
	"fmt"
	"os"

	"github.com/askdoc/askdoc/internal"
	"go.uber.org/zap"
)

// Client provides programmatic access to the question-answering pipeline.
// It is the same call surface the CLI uses; a UI renders Answer.Mode as a
// badge and Answer.Sources as citations.
type Client struct {
	pipeline *internal.Pipeline
	ingestor *internal.Ingestor
	index    internal.VectorIndex
	docsDir  string
}

// New creates a Client from the config file, wiring the embedder, index and
// language-model provider. Invalid configuration fails here, never
// per-query.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		configPath: "askdoc.yaml",
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	appCfg, err := internal.LoadConfig(cfg.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	embedder, err := appCfg.NewEmbedder()
	if err != nil {
		return nil, err
	}

	index, err := appCfg.NewIndex(embedder)
	if err != nil {
		return nil, err
	}
	if err := index.Load(ctx); err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	provider, err := internal.NewFantasyProvider(ctx, internal.FantasyConfig{
		Provider: appCfg.Generator.Provider,
		APIKey:   os.Getenv(appCfg.Generator.APIKeyEnv),
		BaseURL:  appCfg.Generator.BaseURL,
		Model:    appCfg.Generator.Model,
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := internal.NewPipeline(embedder, index, provider, appCfg.PipelineConfig(), cfg.logger)
	if err != nil {
		return nil, err
	}

	ingestor, err := internal.NewIngestor(embedder, index, appCfg.Ingest.ChunkSize, appCfg.Ingest.ChunkOverlap, cfg.logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		pipeline: pipeline,
		ingestor: ingestor,
		index:    index,
		docsDir:  appCfg.Ingest.DocsDir,
	}, nil
}

// Ask answers one question. Infrastructure failures are returned as errors;
// a fallback answer is a normal result, not an error.
func (c *Client) Ask(ctx context.Context, query string) (Answer, error) {
	result, err := c.pipeline.Answer(ctx, query)
	if err != nil {
		return Answer{}, err
	}

	return Answer{
		Answer:  result.Answer,
		Mode:    Mode(result.Mode),
		Sources: result.Sources,
	}, nil
}

// Ingest (re-)indexes the documents directory. Dir may be empty to use the
// configured one.
func (c *Client) Ingest(ctx context.Context, dir string) (IngestStats, error) {
	if dir == "" {
		dir = c.docsDir
	}

	stats, err := c.ingestor.IngestDir(ctx, dir)
	if err != nil {
		return IngestStats{}, err
	}
	return IngestStats{Documents: stats.Documents, Passages: stats.Passages}, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}
