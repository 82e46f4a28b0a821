package internal

import (
	"context"
	"fmt"
)

// Retriever embeds a query, searches the index and filters matches by the
// relevance threshold. The threshold is a fixed, configured value, never
// derived at runtime, so that fallback behavior stays predictable.
//
// Infrastructure failures (embedder or index) propagate; only the relevance
// outcome may select the fallback path.
type Retriever struct {
	embedder  Embedder
	index     VectorIndex
	k         int
	threshold float64
}

func NewRetriever(embedder Embedder, index VectorIndex, k int, threshold float64) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: retriever needs an embedder", ErrInvalidConfig)
	}
	if index == nil {
		return nil, fmt.Errorf("%w: retriever needs a vector index", ErrInvalidConfig)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, k)
	}
	if threshold < -1 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be in [-1, 1], got %g", ErrInvalidConfig, threshold)
	}

	return &Retriever{
		embedder:  embedder,
		index:     index,
		k:         k,
		threshold: threshold,
	}, nil
}

func (r *Retriever) Retrieve(ctx context.Context, query Query) (RetrievalResult, error) {
	vec, err := r.embedder.Embed(ctx, query.Text)
	if err != nil {
		return RetrievalResult{}, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.index.Search(ctx, vec, r.k)
	if err != nil {
		return RetrievalResult{}, fmt.Errorf("search index: %w", err)
	}

	// Matches arrive similarity-descending; filtering preserves order.
	filtered := make([]ScoredMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score >= r.threshold {
			filtered = append(filtered, m)
		}
	}

	return RetrievalResult{
		Matches:   filtered,
		Succeeded: len(filtered) > 0,
	}, nil
}
