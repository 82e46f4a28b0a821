package internal

import (
	"fmt"
	"sort"
	"strings"
)

// ContextAssembler turns retrieved matches into a bounded context block.
// Passages are concatenated in the order received, each tagged with its
// source. A passage that would push the block past the character budget is
// omitted whole rather than truncated, so no retrieved fact is ever cut
// mid-sentence. Duplicate passage IDs (chunk overlap at ingestion time) are
// included once.
type ContextAssembler struct {
	maxChars int
}

func NewContextAssembler(maxChars int) (*ContextAssembler, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: max context chars must be positive, got %d", ErrInvalidConfig, maxChars)
	}
	return &ContextAssembler{maxChars: maxChars}, nil
}

func (a *ContextAssembler) Assemble(matches []ScoredMatch) ContextBlock {
	var sb strings.Builder
	seen := make(map[string]bool, len(matches))
	sources := make(map[string]bool)

	for _, m := range matches {
		if seen[m.Passage.ID] {
			continue
		}

		entry := fmt.Sprintf("[Source: %s, Score: %.3f] %s", m.Passage.Source, m.Score, m.Passage.Text)
		if sb.Len() > 0 {
			entry = "\n---\n" + entry
		}
		if sb.Len()+len(entry) > a.maxChars {
			continue
		}

		sb.WriteString(entry)
		seen[m.Passage.ID] = true
		sources[m.Passage.Source] = true
	}

	out := make([]string, 0, len(sources))
	for s := range sources {
		out = append(out, s)
	}
	sort.Strings(out)

	return ContextBlock{Text: sb.String(), Sources: out}
}
