package internal

import (
	"fmt"
	"strings"
)

// Chunk is a pre-embedding slice of a source document.
type Chunk struct {
	ID     string
	Text   string
	Source string
	Offset int
}

// ChunkID derives a stable passage ID from the source name and the chunk's
// rune offset, so re-ingesting the same document upserts instead of
// duplicating.
func ChunkID(source string, offset int) string {
	return fmt.Sprintf("%s#%d", source, offset)
}

// SplitText splits text into chunks of at most size runes with the given
// overlap, preferring to break on whitespace near the boundary. Empty and
// whitespace-only chunks are dropped.
func SplitText(text, source string, size, overlap int) []Chunk {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	var chunks []Chunk

	for start := 0; start < len(runes); {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		} else {
			// Back up to the nearest whitespace so words stay intact, but
			// never give up more than a fifth of the chunk.
			limit := end - size/5
			for i := end; i > limit; i-- {
				if isSpace(runes[i-1]) {
					end = i
					break
				}
			}
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, Chunk{
				ID:     ChunkID(source, start),
				Text:   piece,
				Source: source,
				Offset: start,
			})
		}

		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
