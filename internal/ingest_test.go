package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestIngestor(t *testing.T, embedder Embedder, index VectorIndex) *Ingestor {
	t.Helper()
	in, err := NewIngestor(embedder, index, 100, 10, zap.NewNop())
	if err != nil {
		t.Fatalf("new ingestor: %v", err)
	}
	return in
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestIngestDir(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "alpha content about the first topic")
	writeDoc(t, dir, "b.md", "bravo content about the second topic")
	writeDoc(t, dir, "skip.jpg", "binary noise")

	index := newTestIndex(t, 4)
	in := newTestIngestor(t, &fakeEmbedder{dim: 4}, index)

	stats, err := in.IngestDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ingest dir: %v", err)
	}

	if stats.Documents != 2 {
		t.Errorf("expected 2 documents, got %d", stats.Documents)
	}
	if stats.Passages != index.Len() {
		t.Errorf("stats report %d passages, index holds %d", stats.Passages, index.Len())
	}
}

func TestIngestDirIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "stable content that does not change between runs")

	index := newTestIndex(t, 4)
	in := newTestIngestor(t, &fakeEmbedder{dim: 4}, index)

	if _, err := in.IngestDir(context.Background(), dir); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	before := index.Len()

	if _, err := in.IngestDir(context.Background(), dir); err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if index.Len() != before {
		t.Errorf("re-ingestion grew the index from %d to %d passages", before, index.Len())
	}
}

func TestIngestDirSkipsDotDirectories(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "visible")

	hidden := filepath.Join(dir, ".cache")
	if err := os.Mkdir(hidden, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeDoc(t, hidden, "b.txt", "hidden")

	in := newTestIngestor(t, &fakeEmbedder{dim: 4}, newTestIndex(t, 4))

	stats, err := in.IngestDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ingest dir: %v", err)
	}
	if stats.Documents != 1 {
		t.Errorf("expected 1 document, got %d", stats.Documents)
	}
}

func TestIngestDirEmpty(t *testing.T) {
	in := newTestIngestor(t, &fakeEmbedder{dim: 4}, newTestIndex(t, 4))

	if _, err := in.IngestDir(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error for directory without documents")
	}
}

func TestIngestFileDerivesStableIDs(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "notes.txt", "short note")

	index := newTestIndex(t, 4)
	in := newTestIngestor(t, &fakeEmbedder{dim: 4}, index)

	n, err := in.IngestFile(context.Background(), filepath.Join(dir, "notes.txt"))
	if err != nil {
		t.Fatalf("ingest file: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 passage, got %d", n)
	}

	matches, err := index.Search(context.Background(), []float32{1, 0, 0, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if matches[0].Passage.ID != "notes.txt#0" {
		t.Errorf("expected id notes.txt#0, got %q", matches[0].Passage.ID)
	}
	if matches[0].Passage.Source != "notes.txt" {
		t.Errorf("expected source notes.txt, got %q", matches[0].Passage.Source)
	}
}

func TestIngestFileEmbedderFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "content")

	embedder := &fakeEmbedder{dim: 4, err: fmt.Errorf("%w: service down", ErrEmbedding)}
	in := newTestIngestor(t, embedder, newTestIndex(t, 4))

	_, err := in.IngestFile(context.Background(), filepath.Join(dir, "a.txt"))
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}

func TestIngestFileBlankDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "blank.txt", "   \n\n  ")

	in := newTestIngestor(t, &fakeEmbedder{dim: 4}, newTestIndex(t, 4))

	n, err := in.IngestFile(context.Background(), filepath.Join(dir, "blank.txt"))
	if err != nil {
		t.Fatalf("ingest blank file: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 passages from blank document, got %d", n)
	}
}

func TestNewIngestorValidation(t *testing.T) {
	index := newTestIndex(t, 4)
	embedder := &fakeEmbedder{dim: 4}

	if _, err := NewIngestor(nil, index, 100, 0, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil embedder: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewIngestor(embedder, nil, 100, 0, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil index: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewIngestor(embedder, index, 0, 0, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero chunk size: expected ErrInvalidConfig, got %v", err)
	}
}
