package main

import (
	"context"
	"fmt"
	"os"

	"github.com/askdoc/askdoc/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "askdoc",
		Short:         "Question answering over a private document corpus",
		Long:          `Retrieval-augmented question answering with an explicit fallback to the model's general knowledge when no document is relevant enough.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		NewInitCmd(),
		NewIngestCmd(newIngestorFromFlags),
		NewAskCmd(newAnswererFromFlags),
		NewChatCmd(newAnswererFromFlags),
		NewSearchCmd(newSearcherFromFlags),
		NewWatchCmd(newIngestorFromFlags),
	)

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "askdoc.yaml", "Path to the config file")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Human-readable debug logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

// answerer is the call surface a UI needs: one query in, one answered
// result out, either whole or as a delta stream.
type answerer interface {
	Answer(ctx context.Context, queryText string) (internal.AnsweredResult, error)
	AnswerStream(ctx context.Context, queryText string) (internal.StreamedAnswer, error)
}

// searcher exposes retrieval without generation, for inspecting scores and
// tuning the threshold.
type searcher interface {
	Retrieve(ctx context.Context, query internal.Query) (internal.RetrievalResult, error)
}

// ingester re-populates the index from the documents directory.
type ingester interface {
	IngestDir(ctx context.Context, dir string) (internal.IngestStats, error)
}

type app struct {
	cfg *internal.Config
	log *zap.Logger
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := internal.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := internal.NewLogger(verbose)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log}, nil
}

func (a *app) loadedIndex(ctx context.Context, embedder internal.Embedder) (internal.VectorIndex, error) {
	index, err := a.cfg.NewIndex(embedder)
	if err != nil {
		return nil, err
	}
	if err := index.Load(ctx); err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	return index, nil
}

func (a *app) provider(ctx context.Context) (internal.Provider, error) {
	return internal.NewFantasyProvider(ctx, internal.FantasyConfig{
		Provider: a.cfg.Generator.Provider,
		APIKey:   os.Getenv(a.cfg.Generator.APIKeyEnv),
		BaseURL:  a.cfg.Generator.BaseURL,
		Model:    a.cfg.Generator.Model,
	})
}

func newAnswererFromFlags(cmd *cobra.Command) (answerer, *app, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()

	embedder, err := a.cfg.NewEmbedder()
	if err != nil {
		return nil, nil, err
	}
	index, err := a.loadedIndex(ctx, embedder)
	if err != nil {
		return nil, nil, err
	}
	provider, err := a.provider(ctx)
	if err != nil {
		return nil, nil, err
	}

	pipeline, err := internal.NewPipeline(embedder, index, provider, a.cfg.PipelineConfig(), a.log)
	if err != nil {
		return nil, nil, err
	}
	return pipeline, a, nil
}

func newSearcherFromFlags(cmd *cobra.Command, k int) (searcher, *app, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := a.cfg.NewEmbedder()
	if err != nil {
		return nil, nil, err
	}
	index, err := a.loadedIndex(cmd.Context(), embedder)
	if err != nil {
		return nil, nil, err
	}

	if k <= 0 {
		k = a.cfg.Retrieval.K
	}
	retriever, err := internal.NewRetriever(embedder, index, k, a.cfg.Retrieval.Threshold)
	if err != nil {
		return nil, nil, err
	}
	return retriever, a, nil
}

func newIngestorFromFlags(cmd *cobra.Command) (ingester, *app, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := a.cfg.NewEmbedder()
	if err != nil {
		return nil, nil, err
	}
	index, err := a.loadedIndex(cmd.Context(), embedder)
	if err != nil {
		return nil, nil, err
	}

	ingestor, err := internal.NewIngestor(embedder, index, a.cfg.Ingest.ChunkSize, a.cfg.Ingest.ChunkOverlap, a.log)
	if err != nil {
		return nil, nil, err
	}
	return ingestor, a, nil
}
