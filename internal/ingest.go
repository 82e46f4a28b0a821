package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

const embedBatchSize = 32

// Ingestor populates the vector index from a documents directory. It is the
// only writer of the index; the query path never mutates it. Passage IDs are
// derived from (source, chunk offset), so running ingestion twice over the
// same corpus is a no-op.
type Ingestor struct {
	embedder     Embedder
	index        VectorIndex
	chunkSize    int
	chunkOverlap int
	log          *zap.Logger
}

type IngestStats struct {
	Documents int
	Passages  int
}

func NewIngestor(embedder Embedder, index VectorIndex, chunkSize, chunkOverlap int, log *zap.Logger) (*Ingestor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: ingestor needs an embedder", ErrInvalidConfig)
	}
	if index == nil {
		return nil, fmt.Errorf("%w: ingestor needs a vector index", ErrInvalidConfig)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, chunkSize)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Ingestor{
		embedder:     embedder,
		index:        index,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		log:          log,
	}, nil
}

// IngestDir walks dir, extracts text from supported files (.pdf, .txt, .md),
// chunks, embeds and upserts, then persists the index.
func (in *Ingestor) IngestDir(ctx context.Context, dir string) (IngestStats, error) {
	var stats IngestStats

	paths, err := collectDocuments(dir)
	if err != nil {
		return stats, err
	}
	if len(paths) == 0 {
		return stats, fmt.Errorf("no ingestible documents in %s", dir)
	}

	for _, path := range paths {
		n, err := in.IngestFile(ctx, path)
		if err != nil {
			return stats, fmt.Errorf("ingest %s: %w", path, err)
		}
		stats.Documents++
		stats.Passages += n
	}

	if err := in.index.Save(ctx); err != nil {
		return stats, fmt.Errorf("persist index: %w", err)
	}

	in.log.Info("ingestion complete",
		zap.Int("documents", stats.Documents),
		zap.Int("passages", stats.Passages),
	)
	return stats, nil
}

// IngestFile processes a single document and returns the number of passages
// upserted. The caller is responsible for saving the index.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	text, err := extractText(path)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	chunks := SplitText(text, source, in.chunkSize, in.chunkOverlap)
	if len(chunks) == 0 {
		in.log.Warn("document produced no chunks", zap.String("source", source))
		return 0, nil
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vecs, err := in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed batch: %w", err)
		}

		for i, c := range batch {
			p := Passage{
				ID:     c.ID,
				Text:   c.Text,
				Source: c.Source,
				Vector: vecs[i],
			}
			if err := in.index.Upsert(p); err != nil {
				return 0, fmt.Errorf("upsert passage %s: %w", c.ID, err)
			}
		}
	}

	in.log.Debug("document ingested",
		zap.String("source", source),
		zap.Int("passages", len(chunks)),
	)
	return len(chunks), nil
}

func collectDocuments(dir string) ([]string, error) {
	var paths []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf", ".txt", ".md":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func extractText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDFText(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func extractPDFText(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	r, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
