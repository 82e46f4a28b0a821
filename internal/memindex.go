package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const IndexFilename = "passages.json"

var _ VectorIndex = (*MemoryIndex)(nil)

// MemoryIndex is a brute-force cosine similarity index. Exact and fully
// deterministic: results come back score-descending with ties broken by
// ascending passage ID. Upserting an existing ID overwrites the stored
// passage, so re-ingestion is idempotent.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	passages  map[string]Passage
	basePath  string
}

func NewMemoryIndex(basePath string, dimension int) (*MemoryIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, dimension)
	}
	if basePath != "" {
		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	return &MemoryIndex{
		dimension: dimension,
		passages:  make(map[string]Passage),
		basePath:  basePath,
	}, nil
}

func (m *MemoryIndex) Upsert(p Passage) error {
	if p.ID == "" {
		return fmt.Errorf("%w: passage has empty id", ErrIndex)
	}
	if len(p.Vector) != m.dimension {
		return fmt.Errorf("%w: dimension mismatch: expected %d, got %d", ErrIndex, m.dimension, len(p.Vector))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.passages[p.ID] = p
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]ScoredMatch, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrIndex, k)
	}
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: dimension mismatch: expected %d, got %d", ErrIndex, m.dimension, len(vector))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndex, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]ScoredMatch, 0, len(m.passages))
	for _, p := range m.passages {
		matches = append(matches, ScoredMatch{
			Passage: p,
			Score:   Cosine(vector, p.Vector),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Passage.ID < matches[j].Passage.ID
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.passages)
}

func (m *MemoryIndex) Save(ctx context.Context) error {
	if m.basePath == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]Passage, 0, len(m.passages))
	for _, p := range m.passages {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("marshal passages: %w", err)
	}

	path := filepath.Join(m.basePath, IndexFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

func (m *MemoryIndex) Load(ctx context.Context) error {
	if m.basePath == "" {
		return nil
	}

	path := filepath.Join(m.basePath, IndexFilename)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	var all []Passage
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("unmarshal passages: %w", err)
	}

	// Validate before swapping in, so a bad file never leaves the index
	// half-loaded.
	loaded := make(map[string]Passage, len(all))
	for _, p := range all {
		if len(p.Vector) != m.dimension {
			return fmt.Errorf("%w: stored passage %q has dimension %d, index expects %d", ErrIndex, p.ID, len(p.Vector), m.dimension)
		}
		loaded[p.ID] = p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.passages = loaded
	return nil
}

// Cosine returns the cosine similarity of a and b in [-1, 1]. A zero-norm
// vector is a degenerate embedding and scores -1, the worst possible match.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return -1
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
