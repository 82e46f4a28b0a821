package internal

import "context"

// Embedder maps text to a fixed-dimension vector. Implementations must be
// deterministic for a fixed model version and must not retry on failure;
// retry policy belongs to the caller.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// VectorIndex stores passages with their embeddings and answers
// nearest-neighbor queries by cosine similarity. Search returns up to k
// matches ordered by descending score, ties broken by ascending passage ID,
// and an empty slice (not an error) when the index holds nothing.
type VectorIndex interface {
	Upsert(p Passage) error
	Search(ctx context.Context, vector []float32, k int) ([]ScoredMatch, error)
	Len() int
	Save(ctx context.Context) error
	Load(ctx context.Context) error
}

// Provider is a generative language model.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string) (<-chan string, error)
}
