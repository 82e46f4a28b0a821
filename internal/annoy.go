package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const (
	AnnoyIndexFilename = "index.ann"
	AnnoyMetaFilename  = "annoy.json"

	defaultNumTrees = 10
)

var _ VectorIndex = (*AnnoyIndex)(nil)

// AnnoyIndex is an approximate nearest-neighbor backend for large corpora.
// Unlike MemoryIndex it does not guarantee exact ordering or tie-breaking;
// the angular-distance results are converted back to cosine similarity so
// threshold filtering behaves the same.
type AnnoyIndex struct {
	mu        sync.RWMutex
	idx       interfaces.AnnoyIndex[float32, uint32]
	dimension int
	numTrees  int
	passages  map[string]Passage
	idToKey   map[uint32]string
	keyToID   map[string]uint32
	nextID    uint32
	basePath  string
	built     bool
}

type annoyMeta struct {
	Passages map[string]Passage `json:"passages"`
	IDToKey  map[uint32]string  `json:"id_to_key"`
	KeyToID  map[string]uint32  `json:"key_to_id"`
	NextID   uint32             `json:"next_id"`
}

func NewAnnoyIndex(basePath string, dimension, numTrees int) (*AnnoyIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, dimension)
	}
	if numTrees <= 0 {
		numTrees = defaultNumTrees
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	idx := builder.Index[float32, uint32]().
		AngularDistance(dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	return &AnnoyIndex{
		idx:       idx,
		dimension: dimension,
		numTrees:  numTrees,
		passages:  make(map[string]Passage),
		idToKey:   make(map[uint32]string),
		keyToID:   make(map[string]uint32),
		basePath:  basePath,
	}, nil
}

func (a *AnnoyIndex) Upsert(p Passage) error {
	if p.ID == "" {
		return fmt.Errorf("%w: passage has empty id", ErrIndex)
	}
	if len(p.Vector) != a.dimension {
		return fmt.Errorf("%w: dimension mismatch: expected %d, got %d", ErrIndex, a.dimension, len(p.Vector))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	id, exists := a.keyToID[p.ID]
	if !exists {
		id = a.nextID
		a.nextID++
		a.keyToID[p.ID] = id
		a.idToKey[id] = p.ID
	}

	a.passages[p.ID] = p
	a.idx.AddItem(id, p.Vector)
	a.built = false
	return nil
}

func (a *AnnoyIndex) Search(ctx context.Context, vector []float32, k int) ([]ScoredMatch, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrIndex, k)
	}
	if len(vector) != a.dimension {
		return nil, fmt.Errorf("%w: dimension mismatch: expected %d, got %d", ErrIndex, a.dimension, len(vector))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndex, err)
	}

	a.mu.Lock()
	if !a.built && len(a.passages) > 0 {
		a.idx.Build(a.numTrees, -1)
		a.built = true
	}
	a.mu.Unlock()

	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.passages) == 0 {
		return []ScoredMatch{}, nil
	}
	if k > len(a.passages) {
		k = len(a.passages)
	}

	searchCtx := a.idx.CreateContext()
	ids, distances := a.idx.GetNnsByVector(vector, k, -1, searchCtx)

	matches := make([]ScoredMatch, 0, len(ids))
	for i, id := range ids {
		key, ok := a.idToKey[id]
		if !ok {
			continue
		}
		p, ok := a.passages[key]
		if !ok {
			continue
		}

		// Angular distance d = sqrt(2*(1-cos)), so cos = 1 - d^2/2.
		var score float64 = -1
		if i < len(distances) {
			d := float64(distances[i])
			score = 1 - d*d/2
		}

		matches = append(matches, ScoredMatch{Passage: p, Score: score})
	}

	return matches, nil
}

func (a *AnnoyIndex) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.passages)
}

func (a *AnnoyIndex) Save(ctx context.Context) error {
	a.mu.Lock()
	if !a.built && len(a.passages) > 0 {
		a.idx.Build(a.numTrees, -1)
		a.built = true
	}
	a.mu.Unlock()

	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.idx.Save(filepath.Join(a.basePath, AnnoyIndexFilename)); err != nil {
		return fmt.Errorf("save annoy index: %w", err)
	}

	meta := annoyMeta{
		Passages: a.passages,
		IDToKey:  a.idToKey,
		KeyToID:  a.keyToID,
		NextID:   a.nextID,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal annoy metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.basePath, AnnoyMetaFilename), data, 0644); err != nil {
		return fmt.Errorf("write annoy metadata: %w", err)
	}
	return nil
}

func (a *AnnoyIndex) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	metaPath := filepath.Join(a.basePath, AnnoyMetaFilename)
	data, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read annoy metadata: %w", err)
	}

	var meta annoyMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("unmarshal annoy metadata: %w", err)
	}

	a.passages = meta.Passages
	a.idToKey = meta.IDToKey
	a.keyToID = meta.KeyToID
	a.nextID = meta.NextID

	indexPath := filepath.Join(a.basePath, AnnoyIndexFilename)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return nil
	}
	if err := a.idx.Load(indexPath); err != nil {
		return fmt.Errorf("load annoy index: %w", err)
	}

	a.built = true
	return nil
}
