package internal

import (
	"errors"
	"strings"
)

var (
	ErrEmbedding     = errors.New("embedding service failed")
	ErrIndex         = errors.New("vector index failed")
	ErrGeneration    = errors.New("generation service failed")
	ErrEmptyQuery    = errors.New("empty query")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Passage is one retrievable chunk of a source document. Immutable once
// stored; the ingestion path derives IDs from (source, offset) so re-indexing
// the same document overwrites rather than duplicates.
type Passage struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Source string    `json:"source"`
	Vector []float32 `json:"vector"`
}

type Query struct {
	Text string
}

func NewQuery(text string) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, ErrEmptyQuery
	}
	return Query{Text: text}, nil
}

// ScoredMatch pairs a passage with its cosine similarity to the query,
// in [-1, 1].
type ScoredMatch struct {
	Passage Passage
	Score   float64
}

// RetrievalResult is the outcome of one retrieval pass. Succeeded is true
// iff at least one match cleared the relevance threshold; a false value is a
// normal outcome, not an error.
type RetrievalResult struct {
	Matches   []ScoredMatch
	Succeeded bool
}

// ContextBlock is the bounded, source-attributed context handed to the
// generator in RAG mode.
type ContextBlock struct {
	Text    string
	Sources []string
}

func (b *ContextBlock) Empty() bool {
	return b == nil || b.Text == ""
}

type Mode string

const (
	ModeRAG      Mode = "RAG"
	ModeFallback Mode = "FALLBACK"
)

// AnsweredResult is the externally visible unit returned per query. Mode ==
// ModeFallback implies Sources is empty, and every source listed was part of
// the context block the answer was generated from.
type AnsweredResult struct {
	Answer  string   `json:"answer"`
	Mode    Mode     `json:"mode"`
	Sources []string `json:"sources,omitempty"`
}

// Decide maps a retrieval outcome to a generation mode. This is the entire
// fallback decision; it is kept free of I/O so it can be tested exhaustively.
func Decide(result RetrievalResult) Mode {
	if result.Succeeded {
		return ModeRAG
	}
	return ModeFallback
}
